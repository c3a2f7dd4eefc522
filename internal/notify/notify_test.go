package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/metrics"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDetection() *database.Detection {
	return &database.Detection{
		ID:              "d1",
		CriminalName:    "John Doe",
		CriminalDetails: database.Case{Name: "John Doe", Crime: "Fraud"},
		DetectedAt:      time.Date(2024, 4, 1, 10, 30, 0, 0, time.UTC),
		Source:          "cctv-3",
		Status:          "Detected",
	}
}

func TestMessage(t *testing.T) {
	msg := Message(testDetection())
	assert.Equal(t, "CrimAI alert: John Doe detected at 2024-04-01 10:30:00 UTC (source: cctv-3). Crime: Fraud", msg)

	d := testDetection()
	d.CriminalDetails.Crime = ""
	assert.NotContains(t, Message(d), "Crime")
}

// --- shoutrrr ---

type fakeSender struct {
	messages []string
	titles   []string
	errs     []error
}

func (f *fakeSender) Send(message string, params *types.Params) []error {
	f.messages = append(f.messages, message)
	f.titles = append(f.titles, (*params)["title"])
	return f.errs
}

func TestShoutrrr_Notify(t *testing.T) {
	fs := &fakeSender{}
	s := &Shoutrrr{sender: fs}

	require.NoError(t, s.Notify(context.Background(), testDetection()))
	require.Len(t, fs.messages, 1)
	assert.Contains(t, fs.messages[0], "John Doe")
	assert.Equal(t, "CrimAI detection", fs.titles[0])
}

func TestShoutrrr_NotifyJoinsErrors(t *testing.T) {
	boom := errors.New("telegram down")
	s := &Shoutrrr{sender: &fakeSender{errs: []error{nil, boom}}}

	err := s.Notify(context.Background(), testDetection())
	assert.ErrorIs(t, err, boom)
}

func TestNewShoutrrr_InvalidURL(t *testing.T) {
	_, err := NewShoutrrr([]string{"notaservice://secret-token@host"}, time.Second)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")

	_, err = NewShoutrrr(nil, time.Second)
	assert.Error(t, err)
}

// --- mqtt ---

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeMQTTClient struct {
	mqtt.Client // unimplemented methods panic

	mu           sync.Mutex
	connected    bool
	published    map[string][]byte
	publishErr   error
	disconnected bool
}

func (c *fakeMQTTClient) IsConnected() bool { return c.connected }

func (c *fakeMQTTClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.published == nil {
		c.published = make(map[string][]byte)
	}
	c.published[topic] = payload.([]byte)
	return &fakeToken{err: c.publishErr}
}

func (c *fakeMQTTClient) Disconnect(quiesce uint) {
	c.disconnected = true
	c.connected = false
}

func TestMQTT_Notify(t *testing.T) {
	client := &fakeMQTTClient{connected: true}
	m := newMQTTWithClient(client, "crimai/detections")

	require.NoError(t, m.Notify(context.Background(), testDetection()))

	var got database.Detection
	require.NoError(t, json.Unmarshal(client.published["crimai/detections"], &got))
	assert.Equal(t, "John Doe", got.CriminalName)
	assert.Equal(t, "cctv-3", got.Source)
	assert.Equal(t, "Fraud", got.CriminalDetails.Crime)
}

func TestMQTT_NotConnected(t *testing.T) {
	m := newMQTTWithClient(&fakeMQTTClient{}, "t")
	err := m.Notify(context.Background(), testDetection())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestMQTT_PublishError(t *testing.T) {
	boom := errors.New("broker rejected")
	m := newMQTTWithClient(&fakeMQTTClient{connected: true, publishErr: boom}, "t")
	assert.ErrorIs(t, m.Notify(context.Background(), testDetection()), boom)
}

func TestMQTT_Close(t *testing.T) {
	client := &fakeMQTTClient{connected: true}
	newMQTTWithClient(client, "t").Close()
	assert.True(t, client.disconnected)
}

// --- multi ---

type recordingNotifier struct {
	name  string
	err   error
	calls int
}

func (r *recordingNotifier) Name() string { return r.name }
func (r *recordingNotifier) Notify(context.Context, *database.Detection) error {
	r.calls++
	return r.err
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	failing := &recordingNotifier{name: "first", err: errors.New("down")}
	ok := &recordingNotifier{name: "second"}

	m := NewMulti(metrics.New(), failing, ok)
	err := m.Notify(context.Background(), testDetection())

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "first"))
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestMulti_Empty(t *testing.T) {
	m := NewMulti(nil)
	assert.NoError(t, m.Notify(context.Background(), testDetection()))
	assert.Zero(t, m.Len())
}

func TestFromConfig_Disabled(t *testing.T) {
	m, err := FromConfig(&config.NotifyConfig{}, nil)
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}
