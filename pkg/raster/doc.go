// Package raster turns badge assets into decoded images at a target DPI.
//
// PNG and JPEG assets are decoded directly. PDF assets have their first
// page rendered by a [Rasterizer]; the default, [Pdftoppm], shells out to
// poppler's pdftoppm, which must be on PATH:
//
//	brew install poppler        # macOS
//	apt install poppler-utils   # Debian/Ubuntu
//
// [Loader] adds a content-addressed cache in front of the rasteriser, so
// re-running a stage over unchanged badges skips the external tool:
//
//	l := raster.NewLoader(raster.LoaderOptions{Cache: c})
//	img, err := l.Load(ctx, "badges/001_director.pdf", 300)
//	fitted := raster.FitLong(img, 1713)
package raster
