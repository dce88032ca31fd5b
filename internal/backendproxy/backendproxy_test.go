package backendproxy_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/backendproxy"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/pkgid"
	"github.com/opkgd/pkgbrokerd/internal/results"
)

func TestBackendproxy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Backendproxy Suite")
}

type fakeTransport struct {
	closed  atomic.Bool
	events  func(role enums.Role, params backend.Params) (<-chan backend.Event, error)
}

func (f *fakeTransport) Call(ctx context.Context, role enums.Role, params backend.Params) (<-chan backend.Event, error) {
	return f.events(role, params)
}

func (f *fakeTransport) Close() error {
	f.closed.Store(true)
	return nil
}

func succeedingTransport() *fakeTransport {
	t := &fakeTransport{}
	t.events = func(role enums.Role, params backend.Params) (<-chan backend.Event, error) {
		ch := make(chan backend.Event, 2)
		ch <- backend.Event{Kind: backend.EventPackage, Payload: results.Package{
			Source:    results.Source{Role: role},
			PackageID: pkgid.ID{Name: "pkg-a"},
			Info:      enums.InfoInstalled,
		}}
		ch <- backend.Event{Kind: backend.EventFinished, Payload: enums.ExitSuccess}
		close(ch)
		return ch, nil
	}
	return t
}

var _ = Describe("Proxy", func() {
	It("forwards a successful call's events through to the job", func() {
		transport := succeedingTransport()
		var dialCount int32
		dial := func(ctx context.Context) (backendproxy.Transport, error) {
			atomic.AddInt32(&dialCount, 1)
			return transport, nil
		}

		p := backendproxy.NewProxy(dial, 10*time.Millisecond, 100*time.Millisecond)
		be := p.Register(backend.Descriptor{Name: "remote", Description: "remote backend"}, enums.RoleSearchName)

		_, ok := be.Entry(enums.RoleSearchName)
		Expect(ok).To(BeTrue())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		job, err := be.Dispatch(ctx, "/transaction/1", enums.RoleSearchName, backend.Params{})
		Expect(err).NotTo(HaveOccurred())

		var kinds []backend.EventKind
		for ev := range job.Events() {
			kinds = append(kinds, ev.Kind)
		}
		Expect(kinds).To(Equal([]backend.EventKind{backend.EventPackage, backend.EventFinished}))
		Expect(atomic.LoadInt32(&dialCount)).To(Equal(int32(1)))
	})

	It("reuses the same transport across calls", func() {
		transport := succeedingTransport()
		var dialCount int32
		dial := func(ctx context.Context) (backendproxy.Transport, error) {
			atomic.AddInt32(&dialCount, 1)
			return transport, nil
		}

		p := backendproxy.NewProxy(dial, 10*time.Millisecond, 100*time.Millisecond)
		be := p.Register(backend.Descriptor{Name: "remote", Description: "remote backend"}, enums.RoleSearchName)

		for i := 0; i < 3; i++ {
			job, err := be.Dispatch(context.Background(), fmt.Sprintf("/transaction/%d", i), enums.RoleSearchName, backend.Params{})
			Expect(err).NotTo(HaveOccurred())
			for range job.Events() {
			}
		}
		Expect(atomic.LoadInt32(&dialCount)).To(Equal(int32(1)))
	})

	It("backs off after a dial failure instead of retrying immediately", func() {
		var dialCount int32
		dial := func(ctx context.Context) (backendproxy.Transport, error) {
			atomic.AddInt32(&dialCount, 1)
			return nil, fmt.Errorf("connection refused")
		}

		p := backendproxy.NewProxy(dial, 50*time.Millisecond, 200*time.Millisecond)
		be := p.Register(backend.Descriptor{Name: "remote", Description: "remote backend"}, enums.RoleSearchName)

		job, err := be.Dispatch(context.Background(), "/transaction/1", enums.RoleSearchName, backend.Params{})
		Expect(err).NotTo(HaveOccurred())
		var exit enums.Exit
		for ev := range job.Events() {
			if ev.Kind == backend.EventFinished {
				exit = ev.Payload.(enums.Exit)
			}
		}
		Expect(exit).To(Equal(enums.ExitFailed))
		Expect(atomic.LoadInt32(&dialCount)).To(Equal(int32(1)))

		job2, err := be.Dispatch(context.Background(), "/transaction/2", enums.RoleSearchName, backend.Params{})
		Expect(err).NotTo(HaveOccurred())
		for range job2.Events() {
		}
		Expect(atomic.LoadInt32(&dialCount)).To(Equal(int32(1)), "second attempt should be skipped while backoff is active")
	})

	It("drops the transport and reports failure when the remote channel closes without Finished", func() {
		transport := &fakeTransport{}
		transport.events = func(role enums.Role, params backend.Params) (<-chan backend.Event, error) {
			ch := make(chan backend.Event)
			close(ch)
			return ch, nil
		}
		dial := func(ctx context.Context) (backendproxy.Transport, error) {
			return transport, nil
		}

		p := backendproxy.NewProxy(dial, 10*time.Millisecond, 100*time.Millisecond)
		be := p.Register(backend.Descriptor{Name: "remote", Description: "remote backend"}, enums.RoleSearchName)

		job, err := be.Dispatch(context.Background(), "/transaction/1", enums.RoleSearchName, backend.Params{})
		Expect(err).NotTo(HaveOccurred())

		var exit enums.Exit
		for ev := range job.Events() {
			if ev.Kind == backend.EventFinished {
				exit = ev.Payload.(enums.Exit)
			}
		}
		Expect(exit).To(Equal(enums.ExitFailed))
		Expect(transport.closed.Load()).To(BeTrue())
	})
})
