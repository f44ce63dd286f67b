package video

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/player"
)

var watchPageTemplate = template.Must(template.New("watch").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}} — VidHaven</title>
    <meta name="description" content="{{.Description}}">
    <meta property="og:title" content="{{.Title}}">
    <meta property="og:type" content="video.other">
    <meta property="og:video" content="{{.VideoURL}}">
    <meta property="og:site_name" content="VidHaven">
    {{if .ThumbnailURL}}<meta property="og:image" content="{{.ThumbnailURL}}">{{end}}
    {{if .UseEngine}}<script nonce="{{.Nonce}}" src="https://cdn.jsdelivr.net/npm/hls.js@1"></script>{{end}}
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0a1628;
            color: #ffffff;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            min-height: 100vh;
            display: flex;
            flex-direction: column;
            align-items: center;
        }
        .container { max-width: 1280px; width: 100%; padding: 2rem 1rem; }
        .layout { display: flex; gap: 1.5rem; align-items: flex-start; }
        .content { flex: 1; min-width: 0; }
        .sidebar { width: 300px; flex-shrink: 0; }
        .player-wrap { position: relative; }
        video { width: 100%; border-radius: 8px; background: #000; }
        .overlay {
            position: absolute; left: 50%; bottom: 12%; transform: translateX(-50%);
            display: none; z-index: 5;
        }
        .overlay.visible { display: flex; justify-content: center; }
        h1 { margin-top: 1rem; font-size: 1.5rem; font-weight: 600; }
        .meta { margin-top: 0.5rem; color: #94a3b8; font-size: 0.875rem; }
        .reactions { margin-top: 1rem; display: flex; gap: 0.5rem; }
        .reactions button {
            background: #1e293b; color: #fff; border: none; border-radius: 6px;
            padding: 0.5rem 0.75rem; cursor: pointer; font-size: 1rem;
        }
        .reactions button:hover { background: #334155; }
        .ad-slot { margin: 1rem 0; display: flex; justify-content: center; }
        .download { margin-top: 1rem; }
        .download a {
            display: inline-block; background: #00b67a; color: #fff;
            text-decoration: none; border-radius: 6px; padding: 0.5rem 1rem;
        }
    </style>
</head>
<body>
    <div class="container">
        <div id="slot-top" class="ad-slot"></div>
        <div class="layout">
            <div class="content">
                <div class="player-wrap">
                    <video id="player" controls playsinline{{if eq .Preload "metadata"}} preload="metadata"{{end}}></video>
                    <div id="slot-in-video" class="overlay"></div>
                </div>
                <div id="slot-below-video" class="ad-slot"></div>
                <h1>{{.Title}}</h1>
                <p class="meta">{{.ViewCount}} views · {{.Date}}</p>
                <div class="reactions" id="reactions"></div>
                {{if .DownloadEnabled}}<p class="download"><a href="#" id="download-btn">{{.DownloadText}}</a></p>{{end}}
                <div id="slot-bottom" class="ad-slot"></div>
            </div>
            <aside class="sidebar">
                <div id="slot-sidebar" class="ad-slot"></div>
            </aside>
        </div>
        <div id="slot-footer" class="ad-slot"></div>
    </div>
    <script nonce="{{.Nonce}}">
    (function() {
        var videoId = {{.VideoID}};
        var src = {{.VideoURL}};
        var v = document.getElementById('player');

        {{if .UseEngine}}
        if (window.Hls && Hls.isSupported()) {
            var hls = new Hls();
            hls.loadSource(src);
            hls.attachMedia(v);
        } else {
            v.src = src;
        }
        {{else}}
        v.src = src;
        {{end}}

        function renderReactions(list) {
            var box = document.getElementById('reactions');
            box.innerHTML = '';
            var emoji = { like: '👍', love: '❤️', laugh: '😂', wow: '😮', sad: '😢', angry: '😠' };
            ['like', 'love', 'laugh', 'wow', 'sad', 'angry'].forEach(function(type) {
                var count = 0;
                list.forEach(function(re) { if (re.reactionType === type) count = re.count; });
                var btn = document.createElement('button');
                btn.textContent = emoji[type] + ' ' + count;
                btn.addEventListener('click', function() {
                    fetch('/api/videos/' + videoId + '/reactions', {
                        method: 'POST',
                        headers: { 'Content-Type': 'application/json' },
                        body: JSON.stringify({ reactionType: type })
                    }).then(loadReactions);
                });
                box.appendChild(btn);
            });
        }
        function loadReactions() {
            fetch('/api/videos/' + videoId + '/reactions')
                .then(function(r) { return r.json(); })
                .then(renderReactions);
        }
        loadReactions();

        function injectSlot(position, elementId, done) {
            fetch('/api/ads/slot/' + position)
                .then(function(r) { return r.json(); })
                .then(function(data) {
                    var host = document.getElementById(elementId);
                    if (!host) return;
                    (data.slots || []).forEach(function(slot) {
                        setTimeout(function() {
                            host.insertAdjacentHTML('beforeend', slot.html);
                            var wrap = document.getElementById(slot.containerId);
                            if (!wrap) return;
                            if (slot.css) {
                                var style = document.createElement('style');
                                style.textContent = slot.css;
                                host.appendChild(style);
                            }
                            (slot.scripts || []).forEach(function(s) {
                                var el = document.createElement('script');
                                if (s.src) { el.src = s.src; el.async = !!s.async; }
                                else { el.textContent = s.inline; }
                                Object.keys(s.attrs || {}).forEach(function(k) {
                                    el.setAttribute(k, s.attrs[k]);
                                });
                                wrap.appendChild(el);
                            });
                            setTimeout(function() {
                                if (!wrap.childElementCount || !wrap.offsetHeight) {
                                    console.warn('ad slot ' + position + ' (' + slot.containerId + ') did not settle');
                                }
                            }, 1500);
                        }, (slot.delaySeconds || 0) * 1000);
                    });
                    if (done) done(data);
                });
        }
        injectSlot('top', 'slot-top');
        injectSlot('below_video', 'slot-below-video');
        injectSlot('sidebar', 'slot-sidebar');
        injectSlot('bottom', 'slot-bottom');
        injectSlot('footer', 'slot-footer');
        injectSlot('in_video', 'slot-in-video', function(data) {
            if (!data.slots || !data.slots.length) return;
            var box = document.getElementById('slot-in-video');
            var sched = data.overlay || {};
            var period = (sched.periodSeconds || 600) * 1000;
            var visible = (sched.visibleSeconds || 30) * 1000;
            if (sched.disableClickThrough) {
                box.addEventListener('click', function(e) { e.stopPropagation(); });
            }
            setInterval(function() {
                box.classList.add('visible');
                setTimeout(function() { box.classList.remove('visible'); }, visible);
            }, period);
        });

        setInterval(function() {
            document.querySelectorAll('.ad-container').forEach(function(box) {
                box.style.overflow = 'hidden';
                for (var i = 0; i < box.children.length; i++) {
                    box.children[i].style.maxWidth = '100%';
                    box.children[i].style.maxHeight = '100%';
                }
            });
        }, 1000);

        {{if .DownloadEnabled}}
        document.getElementById('download-btn').addEventListener('click', function(e) {
            e.preventDefault();
            fetch('/api/videos/' + videoId + '/download')
                .then(function(r) { return r.json(); })
                .then(function(body) { if (body.downloadUrl) window.location = body.downloadUrl; });
        });
        {{end}}
    })();
    </script>
</body>
</html>`))

type watchPageData struct {
	VideoID         string
	Title           string
	Description     string
	VideoURL        string
	ThumbnailURL    string
	ViewCount       int64
	Date            string
	Nonce           string
	UseEngine       bool
	Preload         string
	DownloadEnabled bool
	DownloadText    string
}

// WatchPage renders the public player page for /watch/{id}.
func (h *Handler) WatchPage(w http.ResponseWriter, r *http.Request) {
	h.renderWatchPage(w, r, `SELECT `+videoColumns+`, file_key, COALESCE(content_type, '')
		 FROM videos WHERE id = $1 AND status = 'ready'`, chi.URLParam(r, "id"))
}

// WatchPageByCustomURL renders the same page for /v/{customUrl}.
func (h *Handler) WatchPageByCustomURL(w http.ResponseWriter, r *http.Request) {
	h.renderWatchPage(w, r, `SELECT `+videoColumns+`, file_key, COALESCE(content_type, '')
		 FROM videos WHERE custom_url = $1 AND status = 'ready'`, chi.URLParam(r, "customUrl"))
}

func (h *Handler) renderWatchPage(w http.ResponseWriter, r *http.Request, query, arg string) {
	var v Video
	var fileKey *string
	var contentType string
	err := h.db.QueryRow(r.Context(), query, arg).Scan(
		&v.ID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.CustomURL, &v.AdsTiming, &v.ViewCount, &v.Status, &v.CreatedAt, &v.UpdatedAt,
		&fileKey, &contentType,
	)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	videoURL := v.VideoURL
	if fileKey != nil {
		u, err := h.storage.GenerateDownloadURL(r.Context(), *fileKey, 1*time.Hour)
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		videoURL = u
	}

	source := player.Resolve(videoURL, false)

	var downloadEnabled bool
	var downloadText string
	if err := h.db.QueryRow(r.Context(),
		`SELECT is_enabled, button_text FROM download_config WHERE id = 1`,
	).Scan(&downloadEnabled, &downloadText); err != nil {
		downloadEnabled = false
	}

	thumbnailURL := ""
	if v.ThumbnailURL != nil {
		thumbnailURL = *v.ThumbnailURL
	}

	// Count the view here rather than trusting a client beacon, so each
	// successful page render is recorded exactly once.
	ip := clientIP(r)
	ua := r.UserAgent()
	referrer := r.Referer()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.recordView(ctx, v.ID, ip, ua, referrer)
	}()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := watchPageTemplate.Execute(w, watchPageData{
		VideoID:         v.ID,
		Title:           v.Title,
		Description:     v.Description,
		VideoURL:        videoURL,
		ThumbnailURL:    thumbnailURL,
		ViewCount:       v.ViewCount,
		Date:            v.CreatedAt.Format("Jan 2, 2006"),
		Nonce:           httputil.NonceFromContext(r.Context()),
		UseEngine:       source.Strategy == player.StrategyEngine,
		Preload:         source.Preload,
		DownloadEnabled: downloadEnabled,
		DownloadText:    downloadText,
	}); err != nil {
		log.Printf("failed to render watch page: %v", err)
	}
}
