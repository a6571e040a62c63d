package vkr

import (
	"testing"

	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestFrameTrackerFullCycle(t *testing.T) {
	var tracker frameTracker
	for _, next := range []frameState{
		frameAcquiring, frameRecording, frameSubmitting, framePresenting, frameIdle,
	} {
		require.NoError(t, tracker.advance(next))
	}
	require.Equal(t, frameIdle, tracker.state)
}

func TestFrameTrackerSkipRecording(t *testing.T) {
	var tracker frameTracker
	require.NoError(t, tracker.advance(frameAcquiring))
	require.NoError(t, tracker.advance(frameSubmitting))
}

func TestFrameTrackerRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		from frameState
		to   frameState
	}{
		{"idle to recording", frameIdle, frameRecording},
		{"idle to presenting", frameIdle, framePresenting},
		{"acquiring to presenting", frameAcquiring, framePresenting},
		{"recording to presenting", frameRecording, framePresenting},
		{"submitting to idle", frameSubmitting, frameIdle},
		{"presenting to acquiring", framePresenting, frameAcquiring},
		{"double acquire", frameAcquiring, frameAcquiring},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := frameTracker{state: tc.from}
			err := tracker.advance(tc.to)
			require.Error(t, err)
			require.Equal(t, tc.from, tracker.state, "failed transition must not move the state")
		})
	}
}

func TestFrameStateString(t *testing.T) {
	require.Equal(t, "Idle", frameIdle.String())
	require.Equal(t, "Presenting", framePresenting.String())
	require.Equal(t, "Unknown", frameState(42).String())
}

type noopPayload struct{}

func (noopPayload) Setup(*Context, *Swapchain) error     { return nil }
func (noopPayload) Update(float64)                       {}
func (noopPayload) Record(int) (vk.CommandBuffer, error) { return nil, nil }
func (noopPayload) Destroy()                             {}

type resizingPayload struct {
	noopPayload
	width, height int
}

func (p *resizingPayload) OnResize(width, height int) {
	p.width, p.height = width, height
}

func TestNotifyResize(t *testing.T) {
	p := &resizingPayload{}
	notifyResize(p, 800, 600)
	require.Equal(t, 800, p.width)
	require.Equal(t, 600, p.height)

	// Payloads without the hook are simply skipped.
	notifyResize(noopPayload{}, 1, 1)
}
