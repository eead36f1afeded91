// SPDX-License-Identifier: MIT
package api

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// assetExtensions are paths that never fall back to the SPA index document:
// a missing script or stylesheet must 404, not return HTML.
var assetExtensions = map[string]struct{}{
	".js": {}, ".css": {}, ".map": {}, ".json": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".svg": {}, ".ico": {},
	".woff": {}, ".woff2": {},
}

// serveStatic serves files from the public directory with single-page-app
// fallback. Any parent-directory traversal segment is rejected before the
// filesystem is touched.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reqPath := r.URL.Path
	if hasTraversal(reqPath) {
		s.logger.Warn().Str("path", reqPath).Msg("rejected path traversal attempt")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	fullPath := filepath.Join(s.cfg.PublicDir, filepath.FromSlash(reqPath))

	if info, err := os.Stat(fullPath); err == nil && info.IsDir() {
		fullPath = filepath.Join(fullPath, "index.html")
	}

	f, err := os.Open(fullPath) // #nosec G304 -- traversal rejected above, rooted in PublicDir
	if err != nil {
		if isAssetPath(reqPath) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		// SPA routing: unknown paths resolve to the index document.
		fullPath = filepath.Join(s.cfg.PublicDir, "index.html")
		f, err = os.Open(fullPath) // #nosec G304
		if err != nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if ctype := mime.TypeByExtension(filepath.Ext(fullPath)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// hasTraversal reports whether any path segment is "..".
func hasTraversal(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func isAssetPath(p string) bool {
	_, ok := assetExtensions[strings.ToLower(filepath.Ext(p))]
	return ok
}
