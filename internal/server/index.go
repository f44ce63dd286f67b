package server

import (
	"html/template"
	"log"
	"net/http"

	"github.com/vidhaven/vidhaven/internal/httputil"
)

var indexPageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.SiteTitle}}</title>
    <meta name="description" content="{{.SiteDescription}}">
    {{if .SEOKeywords}}<meta name="keywords" content="{{.SEOKeywords}}">{{end}}
    <meta property="og:title" content="{{.SiteTitle}}">
    <meta property="og:site_name" content="{{.SiteTitle}}">
    {{if .OGImage}}<meta property="og:image" content="{{.OGImage}}">{{end}}
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0a1628; color: #fff;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
        }
        .container { max-width: 1100px; margin: 0 auto; padding: 2rem 1rem; }
        h1 { font-size: 1.75rem; }
        .tagline { color: #94a3b8; margin-top: 0.25rem; }
        .ad-slot { margin: 1rem 0; display: flex; justify-content: center; }
        .grid {
            margin-top: 2rem; display: grid; gap: 1rem;
            grid-template-columns: repeat(auto-fill, minmax(240px, 1fr));
        }
        .card {
            background: #1e293b; border-radius: 8px; overflow: hidden;
            text-decoration: none; color: inherit; display: block;
        }
        .card img { width: 100%; aspect-ratio: 16/9; object-fit: cover; background: #0f172a; }
        .card .body { padding: 0.75rem; }
        .card h2 { font-size: 1rem; }
        .card p { color: #94a3b8; font-size: 0.8rem; margin-top: 0.25rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.SiteTitle}}</h1>
        <p class="tagline">{{.SiteDescription}}</p>
        <div id="slot-top" class="ad-slot"></div>
        <div class="grid">
        {{range .Items}}
            <a class="card" href="{{.Link}}">
                {{if .ThumbnailURL}}<img src="{{.ThumbnailURL}}" alt="" loading="lazy">{{end}}
                <div class="body">
                    <h2>{{.Title}}</h2>
                    {{if .Description}}<p>{{.Description}}</p>{{end}}
                </div>
            </a>
        {{end}}
        </div>
        <div id="slot-bottom" class="ad-slot"></div>
        <div id="slot-footer" class="ad-slot"></div>
    </div>
    <script nonce="{{.Nonce}}">
    ['top', 'bottom', 'footer'].forEach(function(position) {
        fetch('/api/ads/slot/' + position)
            .then(function(r) { return r.json(); })
            .then(function(data) {
                var host = document.getElementById('slot-' + position);
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
            });
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
    </script>
</body>
</html>`))

type indexItem struct {
	Title        string
	Description  string
	Link         string
	ThumbnailURL string
}

type indexPageData struct {
	SiteTitle       string
	SiteDescription string
	SEOKeywords     string
	OGImage         string
	Nonce           string
	Items           []indexItem
}

// handleIndex renders the public homepage: site config, SEO settings for the
// home page, and the curated content feed in display order.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexPageData{
		SiteTitle: "VidHaven",
		Nonce:     httputil.NonceFromContext(r.Context()),
	}

	var siteTitle, siteDescription string
	if err := s.db.QueryRow(r.Context(),
		`SELECT site_title, site_description FROM homepage_config WHERE id = 1`,
	).Scan(&siteTitle, &siteDescription); err == nil {
		if siteTitle != "" {
			data.SiteTitle = siteTitle
		}
		data.SiteDescription = siteDescription
	}

	var seoTitle, seoDescription, seoKeywords, ogImage string
	if err := s.db.QueryRow(r.Context(),
		`SELECT title, description, keywords, og_image FROM seo_settings WHERE page = 'home'`,
	).Scan(&seoTitle, &seoDescription, &seoKeywords, &ogImage); err == nil {
		if seoTitle != "" {
			data.SiteTitle = seoTitle
		}
		if seoDescription != "" {
			data.SiteDescription = seoDescription
		}
		data.SEOKeywords = seoKeywords
		data.OGImage = ogImage
	}

	rows, err := s.db.Query(r.Context(),
		`SELECT title, description, url, thumbnail_url FROM homepage_content ORDER BY display_order, created_at`,
	)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var item indexItem
			var thumb *string
			if err := rows.Scan(&item.Title, &item.Description, &item.Link, &thumb); err != nil {
				break
			}
			if thumb != nil {
				item.ThumbnailURL = *thumb
			}
			data.Items = append(data.Items, item)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPageTemplate.Execute(w, data); err != nil {
		log.Printf("failed to render index page: %v", err)
	}
}
