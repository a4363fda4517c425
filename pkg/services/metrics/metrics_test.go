package metrics

import (
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestPrometheusService(t *testing.T) {
	addr := freeAddr(t)
	s := NewPrometheusService(config.BasicService{Enabled: true, Addresses: []string{addr}}, zaptest.NewLogger(t))
	s.Start()
	defer s.ShutDown()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, time.Second*5, time.Millisecond*50)
	require.True(t, strings.Contains(body, "go_goroutines"))
}

func TestDisabledService(t *testing.T) {
	s := NewPprofService(config.BasicService{Addresses: []string{":0"}}, zaptest.NewLogger(t))
	s.Start()
	s.ShutDown()

	require.Nil(t, NewPrometheusService(config.BasicService{}, nil))
}
