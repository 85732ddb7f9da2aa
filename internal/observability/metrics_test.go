package observability

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goodieshq/cardflo/internal/protocol"
)

func TestDecodeErrorReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{protocol.ErrTruncated, "truncated"},
		{fmt.Errorf("%w: 0x07", protocol.ErrUnknownSuit), "unknown_suit"},
		{fmt.Errorf("%w: %w", protocol.ErrStream, io.ErrUnexpectedEOF), "unexpected_eof"},
		{fmt.Errorf("%w: %w", protocol.ErrStream, io.EOF), "eof"},
		{fmt.Errorf("%w: %w", protocol.ErrStream, io.ErrClosedPipe), "stream"},
		{io.ErrShortWrite, "other"},
	}
	for _, tt := range tests {
		if got := DecodeErrorReason(tt.err); got != tt.want {
			t.Fatalf("%v: expected %q, got %q", tt.err, tt.want, got)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordPacket("tcp", DirectionSent, "SERVER_PLAY", 11)
	RecordDecodeError("tcp", protocol.ErrTruncated)
	SessionOpened("tcp")
	SessionClosed("tcp")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}

	for _, want := range []string{
		`cardflo_wire_packets_total{direction="sent",kind="SERVER_PLAY",transport="tcp"}`,
		`cardflo_wire_decode_errors_total{reason="truncated",transport="tcp"}`,
		`cardflo_server_sessions{transport="tcp"} 0`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}
