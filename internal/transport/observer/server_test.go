package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"homeship.ai/internal/protocol"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/crew"
	"homeship.ai/internal/sim/hold"
	"homeship.ai/internal/sim/refit"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
	"homeship.ai/internal/sim/tasks"
	"homeship.ai/internal/sim/tuning"
)

type fixture struct {
	ship   *ship.Ship
	chain  *tasks.Chain
	hold   *hold.Hold
	roster *crew.Roster
}

func newFixture(t *testing.T, audit ship.AuditSink) fixture {
	t.Helper()
	h := hold.New(0)
	h.Store([]catalogs.Stack{{Item: "ALLOY", Units: 100}})
	roster := crew.NewRoster()
	s := ship.New(shiploc.NewLayout(2, 6), nil, ship.Deps{Jobs: roster, Housing: roster, Cargo: h, Audit: audit})
	s.ForceBuildSection(1, catalogs.SectionWheel)
	s.ForceBuildModule(shiploc.Loc{Section: 1, Slot: 2}, catalogs.ModuleHabitat)
	roster.Board(3)
	chain := tasks.NewChain(s)
	v := refit.New(s, chain, tuning.Defaults(), h)
	task, chk := v.PlanBuildSection(shiploc.Loc{Section: 2}, catalogs.SectionNormal)
	if !chk.OK {
		t.Fatalf("plan: %s", chk)
	}
	if _, err := chain.Enqueue(task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return fixture{ship: s, chain: chain, hold: h, roster: roster}
}

func TestLayoutFrame(t *testing.T) {
	f := newFixture(t, nil)
	msg := LayoutFrame(f.ship, f.chain, f.hold, f.roster)
	if msg.Type != protocol.TypeLayout || msg.Layout.Digest != f.ship.Digest() {
		t.Fatalf("frame header: %+v", msg)
	}
	if len(msg.Layout.Sections) != 4 || msg.Layout.Sections[1].Modules[1] != "HABITAT" {
		t.Fatalf("sections: %+v", msg.Layout.Sections)
	}
	if len(msg.Tasks) != 1 || msg.Tasks[0].Target != "NORMAL" || msg.Tasks[0].Anchor != [2]int{2, 0} {
		t.Fatalf("tasks: %+v", msg.Tasks)
	}
	if len(msg.Housing) != 1 || msg.Housing[0].Occupants != 3 || msg.Housing[0].Loc != [2]int{1, 2} {
		t.Fatalf("housing: %+v", msg.Housing)
	}
	if len(msg.Hold) != 1 || msg.Hold[0] != (protocol.ItemStack{Item: "ALLOY", Count: 100}) {
		t.Fatalf("hold: %+v", msg.Hold)
	}

	bare := LayoutFrame(f.ship, nil, nil, nil)
	if bare.Tasks == nil || len(bare.Tasks) != 0 || bare.Hold != nil {
		t.Fatalf("bare frame: %+v", bare)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/observer"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return base.Type, b
}

func TestServer_StreamsLayoutAndAudit(t *testing.T) {
	obs := NewServer(nil)
	f := newFixture(t, obs)
	obs.Publish(LayoutFrame(f.ship, f.chain, f.hold, f.roster))

	mux := http.NewServeMux()
	mux.HandleFunc("/observer", obs.WSHandler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dial(t, srv)
	if err := conn.WriteJSON(protocol.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: protocol.Version, Audit: true}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	typ, b := readType(t, conn)
	if typ != protocol.TypeLayout {
		t.Fatalf("first frame %s", typ)
	}
	var layout protocol.LayoutMsg
	if err := json.Unmarshal(b, &layout); err != nil || layout.Layout.Digest != f.ship.Digest() {
		t.Fatalf("layout: %v %+v", err, layout.Layout)
	}

	id := f.chain.Tasks()[0].ID
	if err := f.chain.Finish(id); err != nil {
		t.Fatalf("finish: %v", err)
	}
	var last protocol.AuditMsg
	for {
		typ, b := readType(t, conn)
		if typ != protocol.TypeAudit {
			t.Fatalf("unexpected %s", typ)
		}
		if err := json.Unmarshal(b, &last); err != nil {
			t.Fatalf("audit: %v", err)
		}
		if last.Entry.Reason != id {
			t.Fatalf("audit reason %q want %q", last.Entry.Reason, id)
		}
		if last.Entry.Action == ship.ActionBuildSection {
			break
		}
	}
	if last.Entry.Loc != [2]int{2, 0} || last.Entry.To != "NORMAL" {
		t.Fatalf("build entry: %+v", last.Entry)
	}
	if obs.Subscribers() != 1 {
		t.Fatalf("subscribers=%d", obs.Subscribers())
	}
}

func TestServer_RejectsBadSubscribe(t *testing.T) {
	obs := NewServer(nil)
	srv := httptest.NewServer(obs.WSHandler())
	defer srv.Close()

	conn := dial(t, srv)
	if err := conn.WriteJSON(map[string]string{"type": "HELLO", "protocol_version": protocol.Version}); err != nil {
		t.Fatalf("write: %v", err)
	}
	typ, b := readType(t, conn)
	if typ != protocol.TypeError {
		t.Fatalf("got %s", typ)
	}
	var e protocol.ErrorMsg
	_ = json.Unmarshal(b, &e)
	if e.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("code=%s", e.Code)
	}
}

func TestLayoutHandler(t *testing.T) {
	obs := NewServer(nil)
	srv := httptest.NewServer(obs.LayoutHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status before publish=%d", resp.StatusCode)
	}

	f := newFixture(t, nil)
	obs.Publish(LayoutFrame(f.ship, nil, nil, nil))
	resp, err = http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var msg protocol.LayoutMsg
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Layout.Digest != f.ship.Digest() {
		t.Fatalf("digest mismatch")
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:9000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	} {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v", addr, got)
		}
	}
}
