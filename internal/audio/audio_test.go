package audio

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestSelectDeviceFromListPrimaryDefault(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Logitech C920 Mono", Available: true, Default: true},
		{ID: "headset", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "default", "default")
	require.NoError(t, err)
	require.Equal(t, "webcam-mic", selection.Device.ID)
	require.Empty(t, selection.Warning)
}

func TestSelectDeviceFromListMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Logitech C920 Mono", Available: true, Muted: true, Default: true},
		{ID: "headset", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "webcam-mic", "headset")
	require.NoError(t, err)
	require.Equal(t, "headset", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectDeviceFromListFailsWhenSelectedAndFallbackMuted(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Logitech C920 Mono", Available: true, Muted: true, Default: true},
	}

	_, err := selectDeviceFromList(devices, "default", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestSelectDeviceFromListUnknownInput(t *testing.T) {
	devices := []Device{{ID: "webcam-mic", Description: "Logitech C920 Mono", Available: true, Default: true}}

	_, err := selectDeviceFromList(devices, "missing", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match")
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-logitech", Description: "Logitech C920 Mono"}
	require.True(t, deviceMatches(dev, "logitech"))
	require.True(t, deviceMatches(dev, "c920"))
	require.False(t, deviceMatches(dev, "missing"))
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.Error(t, err)
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(99)", sourceStateString(99))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{})) // no ports => available

	available := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, available, []sourcePort{{name: "mic", available: 2}})
	require.True(t, sourceAvailable(available))

	notAvailable := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, notAvailable, []sourcePort{{name: "mic", available: 1}})
	require.False(t, sourceAvailable(notAvailable))
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	called := false
	writer := writerFunc(func(b []byte) (int, error) {
		called = true
		require.Equal(t, []byte{1, 2, 3}, b)
		return len(b), nil
	})

	n, err := writer.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.True(t, called)
}

func TestCaptureOnPCMChunkingAndStopFlushesPending(t *testing.T) {
	capture := &Capture{
		chunks: make(chan []byte, 8),
		stopCh: make(chan struct{}),
	}

	input := make([]byte, chunkSizeBytes+111)
	for i := range input {
		input[i] = byte(i % 255)
	}

	n, err := capture.onPCM(input)
	require.NoError(t, err)
	require.Equal(t, len(input), n)
	require.Equal(t, int64(len(input)), capture.BytesCaptured())

	firstChunk := <-capture.Chunks()
	require.Len(t, firstChunk, chunkSizeBytes)

	require.NoError(t, capture.Stop())

	remaining, ok := <-capture.Chunks()
	require.True(t, ok)
	require.Len(t, remaining, 111)

	_, ok = <-capture.Chunks()
	require.False(t, ok)
}

func TestCaptureOnPCMReturnsEOFWhenStopped(t *testing.T) {
	capture := &Capture{
		chunks: make(chan []byte, 1),
		stopCh: make(chan struct{}),
	}
	close(capture.stopCh)

	n, err := capture.onPCM([]byte{1, 2, 3})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, int64(0), capture.BytesCaptured())
}

func TestCaptureStreamAdapterStopClosesChunks(t *testing.T) {
	capture := &Capture{
		chunks: make(chan []byte, 1),
		stopCh: make(chan struct{}),
	}
	stream := &captureStream{capture: capture}

	stream.RequestStop()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-stream.Chunks():
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	require.NoError(t, stream.Close())
}

func TestSpeakerSourceAppliesGain(t *testing.T) {
	s := NewSpeaker(24000)
	// Two samples: 1000 and -1000.
	require.NoError(t, s.Load([]byte{0xe8, 0x03, 0x18, 0xfc}))
	s.SetVolume(0.5)

	buf := make([]byte, 8)
	src := &speakerSource{speaker: s}
	n, err := src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0xf4, 0x01, 0x0c, 0xfe}, buf[:4]) // 500 and -500

	require.True(t, s.Ended())
	_, err = src.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestSpeakerSeekClampsAndAligns(t *testing.T) {
	s := NewSpeaker(24000)
	require.NoError(t, s.Load(make([]byte, 10)))

	require.NoError(t, s.SeekTo(time.Hour))
	require.True(t, s.Ended())

	require.NoError(t, s.SeekTo(0))
	require.False(t, s.Ended())

	require.NoError(t, s.SeekTo(-time.Second))
	require.False(t, s.Ended())
}

func TestSpeakerPlayWithoutPayloadFails(t *testing.T) {
	s := NewSpeaker(0)
	require.Equal(t, DefaultPlaybackRate, s.SampleRate)
	require.Error(t, s.Play())
}

type sourcePort struct {
	name      string
	available uint32
}

func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceType := reflect.TypeOf(reply.Ports)
	sliceValue := reflect.MakeSlice(sliceType, len(ports), len(ports))

	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}

	replyValue := reflect.ValueOf(reply).Elem().FieldByName("Ports")
	replyValue.Set(sliceValue)
}
