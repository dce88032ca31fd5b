package netstate_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/netstate"
)

func TestNetstate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Netstate Suite")
}

type fakeDialer struct {
	fail bool
}

func (f fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if f.fail {
		return nil, errors.New("unreachable")
	}
	c1, c2 := net.Pipe()
	c2.Close()
	return c1, nil
}

var _ = Describe("Prober", func() {
	It("starts offline and reports online once a probe succeeds", func() {
		p := netstate.NewProber("example.invalid:80", time.Hour, fakeDialer{})
		Expect(p.State()).To(Equal(enums.NetworkStateOffline))

		ctx, cancel := context.WithCancel(context.Background())
		go p.Run(ctx)
		Eventually(p.State).Should(Equal(enums.NetworkStateOnline))
		cancel()
	})

	It("stays offline when every dial fails", func() {
		p := netstate.NewProber("example.invalid:80", time.Hour, fakeDialer{fail: true})
		ctx, cancel := context.WithCancel(context.Background())
		go p.Run(ctx)
		Consistently(p.State, "100ms").Should(Equal(enums.NetworkStateOffline))
		cancel()
	})

	It("fires OnChange only when the state actually flips", func() {
		p := netstate.NewProber("example.invalid:80", time.Hour, fakeDialer{})
		var calls int
		p.OnChange(func(enums.NetworkState) { calls++ })

		p.SetState(enums.NetworkStateOnline)
		p.SetState(enums.NetworkStateOnline)
		p.SetState(enums.NetworkStateWifi)
		Expect(calls).To(Equal(2))
	})
})
