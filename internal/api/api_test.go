package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vladdudu12/wall-e-control-go/internal/api"
	"github.com/vladdudu12/wall-e-control-go/internal/audio"
	"github.com/vladdudu12/wall-e-control-go/internal/config"
	"github.com/vladdudu12/wall-e-control-go/internal/controller"
	"github.com/vladdudu12/wall-e-control-go/internal/events"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
	"github.com/vladdudu12/wall-e-control-go/internal/netctl"
	"github.com/vladdudu12/wall-e-control-go/internal/network"
	"github.com/vladdudu12/wall-e-control-go/internal/robot"
)

// fakeBluetooth implements api.Bluetooth without a system bus.
type fakeBluetooth struct {
	devices   []models.BluetoothDevice
	connected string
}

func (f *fakeBluetooth) Status(ctx context.Context) models.BluetoothStatus {
	return models.BluetoothStatus{Available: true, Powered: true, SpeakerMAC: f.connected, Connected: f.connected != ""}
}

func (f *fakeBluetooth) Scan(ctx context.Context, d time.Duration) ([]models.BluetoothDevice, error) {
	return f.devices, nil
}

func (f *fakeBluetooth) Connect(ctx context.Context, mac string) error {
	if mac == "" {
		return models.ErrBadRequest("missing mac")
	}
	f.connected = mac
	return nil
}

func (f *fakeBluetooth) Disconnect(ctx context.Context) error {
	if f.connected == "" {
		return models.ErrNotFound("no default speaker configured")
	}
	f.connected = ""
	return nil
}

// testAPI bundles the test server with the mocks behind it so tests can
// inspect driver state and publish bus events directly.
type testAPI struct {
	srv *httptest.Server
	drv *robot.Mock
	bus *events.Bus
}

// newTestAPI spins up a full router with mock dependencies.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	drv := robot.NewMock()
	drv.Connect(context.Background())
	store := config.NewMemStore()
	bus := events.NewBus()

	ctrl, err := controller.New(drv, audio.NewMockPlayer(), store, bus)
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}

	dir := t.TempDir()
	net := netctl.New(netctl.Options{
		Backend:      network.NewMock(),
		FlagPath:     filepath.Join(dir, "mode_flag"),
		LockPath:     filepath.Join(dir, "lock"),
		BackupDir:    filepath.Join(dir, "backups"),
		Interface:    "wlan0",
		AP:           models.DefaultSettings().AP,
		WaitInterval: time.Millisecond,
		WaitMax:      50 * time.Millisecond,
	})

	bt := &fakeBluetooth{devices: []models.BluetoothDevice{
		{MAC: "AA:BB:CC:DD:EE:FF", Name: "JBL Flip", AudioSink: true},
	}}

	router := api.NewRouter(ctrl, net, bt, bus)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, drv: drv, bus: bus}
}

func newTestServer(t *testing.T) *httptest.Server {
	return newTestAPI(t).srv
}

// dialWS opens a WebSocket client against the test server's /ws endpoint.
func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// do is a convenience helper for making requests to the test server.
func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON reads and decodes a JSON response body into v.
func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
}

// requireStatus fails the test if the response status doesn't match.
func requireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

func TestGetStatus(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, "GET", "/api/status", "")
	requireStatus(t, resp, http.StatusOK)

	var st models.Status
	decodeJSON(t, resp, &st)
	if st.Mode != models.RobotIdle {
		t.Errorf("mode = %q, want idle", st.Mode)
	}
	if len(st.ServoPositions) != 4 {
		t.Errorf("servo positions = %v", st.ServoPositions)
	}
}

func TestPostCommand_WakeUp(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, "POST", "/api/command", `{"command":"wake_up"}`)
	requireStatus(t, resp, http.StatusOK)

	var cr models.CommandResponse
	decodeJSON(t, resp, &cr)
	if !cr.Success || cr.Result != "Wall-E is waking up!" {
		t.Errorf("response = %+v", cr)
	}

	resp = do(t, srv, "GET", "/api/status", "")
	var st models.Status
	decodeJSON(t, resp, &st)
	if st.Mode != models.RobotGreeting {
		t.Errorf("mode = %q, want greeting", st.Mode)
	}
}

func TestPostCommand_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, "POST", "/api/command", `{"command":"dance"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/command", `{}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/command", `not json`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestPostMoveAndServo(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, "POST", "/api/move", `{"direction":"forward"}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/servo", `{"servo":"head_pan","angle":120}`)
	requireStatus(t, resp, http.StatusOK)

	var st models.Status
	decodeJSON(t, resp, &st)
	if st.ServoPositions["head_pan"] != 120 {
		t.Errorf("head_pan = %d, want 120", st.ServoPositions["head_pan"])
	}

	resp = do(t, srv, "POST", "/api/servo", `{"servo":"tail","angle":90}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestPostSoundAndVolume(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, "GET", "/api/sounds", "")
	requireStatus(t, resp, http.StatusOK)
	var sounds map[string][]string
	decodeJSON(t, resp, &sounds)
	if len(sounds["sounds"]) == 0 {
		t.Fatal("no sounds listed")
	}

	resp = do(t, srv, "POST", "/api/sound", `{"sound":"beep"}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/sound", `{"sound":"kazoo"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/volume", `{"volume":55}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestNetworkEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, "GET", "/api/network/status", "")
	requireStatus(t, resp, http.StatusOK)
	var ns models.NetworkStatus
	decodeJSON(t, resp, &ns)
	if ns.Mode != models.ModeUnknown {
		t.Errorf("initial mode = %q, want unknown", ns.Mode)
	}

	resp = do(t, srv, "POST", "/api/network/ap", "")
	requireStatus(t, resp, http.StatusOK)
	var tr models.Transition
	decodeJSON(t, resp, &tr)
	if tr.Status != models.TransitionVerified || tr.Target != models.ModeAccessPoint {
		t.Errorf("transition = %+v", tr)
	}

	resp = do(t, srv, "GET", "/api/network/test", "")
	requireStatus(t, resp, http.StatusOK)
	var hr models.HealthReport
	decodeJSON(t, resp, &hr)
	if hr.Mode != models.ModeAccessPoint || len(hr.Checks) == 0 {
		t.Errorf("health report = %+v", hr)
	}
}

func TestNetworkDetect(t *testing.T) {
	srv := newTestServer(t)

	// The mock backend boots with a saved profile and working client
	// stack, so detection lands on client mode.
	resp := do(t, srv, "POST", "/api/network/detect", "")
	requireStatus(t, resp, http.StatusOK)
	var tr models.Transition
	decodeJSON(t, resp, &tr)
	if tr.Target != models.ModeClient || tr.Status != models.TransitionVerified {
		t.Errorf("transition = %+v", tr)
	}
}

func TestNetworkWifi_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, "POST", "/api/network/wifi", `{"ssid":"","passphrase":"longenough"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/network/wifi", `{"ssid":"HomeNet","passphrase":"short"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/network/wifi", `{"ssid":"HomeNet","passphrase":"hunter2hunter2"}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestNetworkBackups(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, "GET", "/api/network/backups", "")
	requireStatus(t, resp, http.StatusOK)
	var backups []models.BackupInfo
	decodeJSON(t, resp, &backups)
	if len(backups) != 0 {
		t.Errorf("initial backups = %v", backups)
	}

	resp = do(t, srv, "POST", "/api/network/restore", `{"id":"../../etc"}`)
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestBluetoothEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, "POST", "/api/bluetooth/scan", "")
	requireStatus(t, resp, http.StatusOK)
	var devices []models.BluetoothDevice
	decodeJSON(t, resp, &devices)
	if len(devices) != 1 || devices[0].MAC != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("devices = %v", devices)
	}

	// Second scan inside the rate window is rejected.
	resp = do(t, srv, "POST", "/api/bluetooth/scan", "")
	requireStatus(t, resp, http.StatusTooManyRequests)
	resp.Body.Close()

	resp = do(t, srv, "POST", "/api/bluetooth/connect", `{"mac":"AA:BB:CC:DD:EE:FF"}`)
	requireStatus(t, resp, http.StatusOK)
	var bs models.BluetoothStatus
	decodeJSON(t, resp, &bs)
	if !bs.Connected {
		t.Errorf("status after connect = %+v", bs)
	}

	resp = do(t, srv, "POST", "/api/bluetooth/disconnect", "")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSSE_StreamsStatus(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest("GET", srv.URL+"/api/subscribe", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	requireStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	// The first event is the current status snapshot.
	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	line := string(buf[:n])
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("first SSE frame = %q", line)
	}
	var st models.Status
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data: "))), &st); err != nil {
		t.Fatalf("decode SSE payload: %v", err)
	}
	if st.Mode != models.RobotIdle {
		t.Errorf("snapshot mode = %q", st.Mode)
	}
}

func TestWebSocket_SnapshotAndDispatch(t *testing.T) {
	env := newTestAPI(t)
	conn := dialWS(t, env.srv)

	// The first frame is the current status snapshot, like SSE.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var st models.Status
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if st.Mode != models.RobotIdle {
		t.Errorf("snapshot mode = %q, want idle", st.Mode)
	}

	err := conn.WriteJSON(map[string]interface{}{
		"command": "motor_control",
		"params":  map[string]interface{}{"left_speed": 120, "right_speed": -80},
	})
	if err != nil {
		t.Fatalf("write motor_control: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if m := env.drv.Motors(); m.LeftSpeed == 120 && m.RightSpeed == -80 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("motors = %+v, want 120/-80", env.drv.Motors())
		}
		time.Sleep(time.Millisecond)
	}

	err = conn.WriteJSON(map[string]interface{}{
		"command": "servo_head_pan",
		"params":  map[string]interface{}{"angle": 45},
	})
	if err != nil {
		t.Fatalf("write servo: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for env.drv.Servo(models.ServoHeadPan) != 45 {
		if time.Now().After(deadline) {
			t.Fatalf("head_pan = %d, want 45", env.drv.Servo(models.ServoHeadPan))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWebSocket_ErrorFramesInterleaveWithStatus(t *testing.T) {
	env := newTestAPI(t)
	conn := dialWS(t, env.srv)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var st models.Status
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	const bad = 50

	// Flood the bus with status updates while sending invalid commands, so
	// status frames and error frames are produced at the same time. Every
	// invalid command must come back as an error frame; status frames may
	// be dropped by the bus but must never corrupt the stream.
	stop := make(chan struct{})
	published := make(chan struct{})
	go func() {
		defer close(published)
		for {
			select {
			case <-stop:
				return
			default:
				env.bus.Publish(models.Status{Mode: models.RobotIdle})
			}
		}
	}()
	go func() {
		for i := 0; i < bad; i++ {
			msg := map[string]interface{}{"command": "dance"}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	errFrames := 0
	for errFrames < bad {
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read after %d error frames: %v", errFrames, err)
		}
		if _, ok := frame["error"]; ok {
			errFrames++
		}
	}
	close(stop)
	<-published
}

func TestIndexServed(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, "GET", "/", "")
	requireStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "WALL-E Control") {
		t.Error("index page missing title")
	}
}
