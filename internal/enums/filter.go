package enums

// Filter is a single bit of a query filter bitfield (§3.2). Use
// Bitfield[Filter] to carry a set of them.
type Filter int

const (
	FilterNone Filter = iota
	FilterInstalled
	FilterNotInstalled
	FilterDevel
	FilterNotDevel
	FilterGui
	FilterNotGui
	FilterFree
	FilterNotFree
	FilterVisible
	FilterNotVisible
	FilterSupported
	FilterNotSupported
	FilterBasename
	FilterNotBasename
	FilterNewest
	FilterNotNewest
	FilterArch
	FilterNotArch
	FilterSource
	FilterNotSource
	FilterCollections
	FilterNotCollections
	FilterApplication
	FilterNotApplication
	FilterDownloaded
	FilterNotDownloaded
)

var filterTokens = map[Filter]string{
	FilterNone:           "none",
	FilterInstalled:      "installed",
	FilterNotInstalled:   "~installed",
	FilterDevel:          "devel",
	FilterNotDevel:       "~devel",
	FilterGui:            "gui",
	FilterNotGui:         "~gui",
	FilterFree:           "free",
	FilterNotFree:        "~free",
	FilterVisible:        "visible",
	FilterNotVisible:     "~visible",
	FilterSupported:      "supported",
	FilterNotSupported:   "~supported",
	FilterBasename:       "basename",
	FilterNotBasename:    "~basename",
	FilterNewest:         "newest",
	FilterNotNewest:      "~newest",
	FilterArch:           "arch",
	FilterNotArch:        "~arch",
	FilterSource:         "source",
	FilterNotSource:      "~source",
	FilterCollections:    "collections",
	FilterNotCollections: "~collections",
	FilterApplication:    "application",
	FilterNotApplication: "~application",
	FilterDownloaded:     "downloaded",
	FilterNotDownloaded:  "~downloaded",
}

var filterFromToken = reverseTokens(filterTokens)

func (f Filter) String() string {
	if v, ok := filterTokens[f]; ok {
		return v
	}
	return "none"
}

// ParseFilter parses a single filter token (accepts both "not-x" and the
// PackageKit-style "~x" negation spelling).
func ParseFilter(s string) (Filter, bool) {
	if v, ok := filterFromToken[s]; ok {
		return v, true
	}
	if negated, ok := negatedFilterAlias(s); ok {
		return negated, true
	}
	return FilterNone, false
}

func negatedFilterAlias(s string) (Filter, bool) {
	aliases := map[string]Filter{
		"not-installed":   FilterNotInstalled,
		"not-devel":       FilterNotDevel,
		"not-gui":         FilterNotGui,
		"not-free":        FilterNotFree,
		"not-visible":     FilterNotVisible,
		"not-supported":   FilterNotSupported,
		"not-basename":    FilterNotBasename,
		"not-newest":      FilterNotNewest,
		"not-arch":        FilterNotArch,
		"not-source":      FilterNotSource,
		"not-collections": FilterNotCollections,
		"not-application": FilterNotApplication,
		"not-downloaded":  FilterNotDownloaded,
	}
	v, ok := aliases[s]
	return v, ok
}

// AllFilters lists every Filter value, in declaration order.
func AllFilters() []Filter {
	return []Filter{
		FilterNone, FilterInstalled, FilterNotInstalled, FilterDevel, FilterNotDevel,
		FilterGui, FilterNotGui, FilterFree, FilterNotFree, FilterVisible, FilterNotVisible,
		FilterSupported, FilterNotSupported, FilterBasename, FilterNotBasename,
		FilterNewest, FilterNotNewest, FilterArch, FilterNotArch, FilterSource, FilterNotSource,
		FilterCollections, FilterNotCollections, FilterApplication, FilterNotApplication,
		FilterDownloaded, FilterNotDownloaded,
	}
}

// ParseFilterBitfield parses a ';'-delimited filter token list. It
// returns ok=false if any token is unrecognized (callers surface this as
// filter-invalid, per §4.5).
func ParseFilterBitfield(text string) (Bitfield[Filter], bool) {
	if text == "" {
		return 0, true
	}
	var b Bitfield[Filter]
	for _, tok := range splitSemicolon(text) {
		v, ok := ParseFilter(tok)
		if !ok {
			return 0, false
		}
		b = b.With(v)
	}
	return b, true
}
