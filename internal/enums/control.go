package enums

// NetworkState is the control surface's coarse view of network
// reachability (§4.7 "network-state" property, §6 NetworkStateChanged).
type NetworkState int

const (
	NetworkStateOffline NetworkState = iota
	NetworkStateOnline
	NetworkStateWired
	NetworkStateWifi
	NetworkStateMobile
)

var networkStateTokens = map[NetworkState]string{
	NetworkStateOffline: "offline",
	NetworkStateOnline:  "online",
	NetworkStateWired:   "wired",
	NetworkStateWifi:    "wifi",
	NetworkStateMobile:  "mobile",
}

var networkStateFromToken = reverseTokens(networkStateTokens)

func (n NetworkState) String() string {
	if v, ok := networkStateTokens[n]; ok {
		return v
	}
	return "offline"
}

// ParseNetworkState parses a kebab-case wire token into a NetworkState.
func ParseNetworkState(s string) (NetworkState, bool) {
	v, ok := networkStateFromToken[s]
	return v, ok
}

// AuthorizeResult is CanAuthorize's answer: whether a caller may invoke
// a privileged action outright, never, or only after an interactive
// prompt (§4.7 "CanAuthorize").
type AuthorizeResult int

const (
	AuthorizeNo AuthorizeResult = iota
	AuthorizeYes
	AuthorizeInteractive
)

var authorizeResultTokens = map[AuthorizeResult]string{
	AuthorizeNo:          "no",
	AuthorizeYes:         "yes",
	AuthorizeInteractive: "interactive",
}

func (a AuthorizeResult) String() string {
	if v, ok := authorizeResultTokens[a]; ok {
		return v
	}
	return "no"
}
