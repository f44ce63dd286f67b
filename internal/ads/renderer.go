package ads

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// SlotSize is the fixed box an ad is clipped into, per placement slot.
// Third-party creatives are forced to fill exactly this box so they can never
// shift the surrounding layout.
type SlotSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

var slotSizes = map[string]SlotSize{
	SlotTop:        {Width: 728, Height: 90},
	SlotBottom:     {Width: 728, Height: 90},
	SlotSidebar:    {Width: 300, Height: 250},
	SlotInVideo:    {Width: 480, Height: 70},
	SlotBelowVideo: {Width: 728, Height: 90},
	SlotFooter:     {Width: 728, Height: 90},
}

// SizeForSlot returns the containment box for a placement slot.
func SizeForSlot(position string) SlotSize {
	if size, ok := slotSizes[position]; ok {
		return size
	}
	return SlotSize{Width: 300, Height: 250}
}

// Script describes one <script> tag extracted from an ad payload. Markup
// inserted into the DOM never executes its scripts, so the injector recreates
// each one as a fresh element: remote scripts get a new src (fetched and run
// asynchronously), inline scripts carry their text verbatim.
type Script struct {
	Src    string            `json:"src,omitempty"`
	Inline string            `json:"inline,omitempty"`
	Async  bool              `json:"async"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// RenderedSlot is one ad prepared for client-side injection: inert markup,
// scoped containment CSS, the scripts to recreate, and the load delay the
// schedule assigned to this slot index.
type RenderedSlot struct {
	AdID         string   `json:"adId"`
	Name         string   `json:"name"`
	ContainerID  string   `json:"containerId"`
	HTML         string   `json:"html"`
	CSS          string   `json:"css"`
	Scripts      []Script `json:"scripts"`
	Size         SlotSize `json:"size"`
	DelaySeconds int      `json:"delaySeconds"`
}

// Render prepares an ad payload for injection at the given slot index.
// Renderer failures are the caller's to swallow: a broken creative is logged
// and skipped, never surfaced to the page.
func Render(ad Ad, index int, schedule Schedule) (RenderedSlot, error) {
	markup, scripts, err := splitScripts(ad.AdCode)
	if err != nil {
		slog.Error("ads: failed to parse ad code", "ad_id", ad.ID, "error", err)
		return RenderedSlot{}, fmt.Errorf("parse ad code: %w", err)
	}

	containerID := "ad-slot-" + uuid.NewString()
	size := SizeForSlot(ad.Position)

	return RenderedSlot{
		AdID:         ad.ID,
		Name:         ad.Name,
		ContainerID:  containerID,
		HTML:         fmt.Sprintf(`<div id="%s" class="ad-container">%s</div>`, containerID, markup),
		CSS:          containmentCSS(containerID, size),
		Scripts:      scripts,
		Size:         size,
		DelaySeconds: schedule.DelayForIndex(index),
	}, nil
}

// splitScripts separates executable script tags from the inert remainder of
// an ad payload.
func splitScripts(adCode string) (markup string, scripts []Script, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(adCode))
	if err != nil {
		return "", nil, err
	}

	scripts = make([]Script, 0)
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		script := Script{Attrs: make(map[string]string)}
		for _, attr := range sel.Nodes[0].Attr {
			switch attr.Key {
			case "src":
				script.Src = attr.Val
			case "async":
				// recorded below; remote scripts are always async
			default:
				script.Attrs[attr.Key] = attr.Val
			}
		}
		if script.Src != "" {
			script.Async = true
		} else {
			script.Inline = sel.Text()
		}
		if len(script.Attrs) == 0 {
			script.Attrs = nil
		}
		scripts = append(scripts, script)
	})
	doc.Find("script").Remove()

	// goquery wraps fragments in a full document; fold head remnants and the
	// body back into one fragment.
	var b strings.Builder
	if headHTML, err := doc.Find("head").Html(); err == nil {
		b.WriteString(headHTML)
	}
	bodyHTML, err := doc.Find("body").Html()
	if err != nil {
		return "", nil, err
	}
	b.WriteString(bodyHTML)

	return b.String(), scripts, nil
}

// containmentCSS builds rules scoped to one container id. Everything the
// third party inserts is clipped to the slot box; the injector re-applies the
// same constraints on a 1 Hz timer to nodes added after initial load.
func containmentCSS(containerID string, size SlotSize) string {
	return fmt.Sprintf(
		`#%[1]s{width:%[2]dpx;height:%[3]dpx;overflow:hidden;position:relative;display:block;contain:layout size style;}`+
			`#%[1]s *{max-width:%[2]dpx !important;max-height:%[3]dpx !important;}`+
			`#%[1]s iframe,#%[1]s img,#%[1]s video{width:%[2]dpx !important;height:%[3]dpx !important;border:0;}`,
		containerID, size.Width, size.Height,
	)
}
