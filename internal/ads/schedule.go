package ads

// Schedule staggers ad loading so multiple creatives in one region never
// fetch simultaneously. The slot at index i starts loading after
// base + i*increment seconds; a delay of zero loads immediately.
type Schedule struct {
	BaseDelaySeconds     int
	IncrementSeconds     int
	OverlayPeriodSeconds int
	OverlayVisibleSecs   int
}

// DefaultSchedule mirrors the production timing: 2s base, 3s steps, and a
// 10s/5s in-player overlay cycle.
func DefaultSchedule() Schedule {
	return Schedule{
		BaseDelaySeconds:     2,
		IncrementSeconds:     3,
		OverlayPeriodSeconds: 10,
		OverlayVisibleSecs:   5,
	}
}

// DelayForIndex computes the load delay for the slot at the given index.
func (s Schedule) DelayForIndex(index int) int {
	if index < 0 {
		index = 0
	}
	return s.BaseDelaySeconds + index*s.IncrementSeconds
}

// OverlaySchedule drives the in-player overlay cycle: every PeriodSeconds
// the overlay is shown, VisibleSeconds later it hides again. While visible,
// click-to-toggle playback on the underlying player is disabled so a viewer
// cannot pause or resume through the overlay.
type OverlaySchedule struct {
	PeriodSeconds       int  `json:"periodSeconds"`
	VisibleSeconds      int  `json:"visibleSeconds"`
	DisableClickThrough bool `json:"disableClickThrough"`
}

func (s Schedule) Overlay() OverlaySchedule {
	return OverlaySchedule{
		PeriodSeconds:       s.OverlayPeriodSeconds,
		VisibleSeconds:      s.OverlayVisibleSecs,
		DisableClickThrough: true,
	}
}
