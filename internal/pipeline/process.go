package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/MeKo-Tech/docextract/internal/assemble"
	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/MeKo-Tech/docextract/internal/common"
	"github.com/MeKo-Tech/docextract/internal/pdf"
	"github.com/MeKo-Tech/docextract/internal/utils"
	"golang.org/x/sync/errgroup"
)

var detectedColor = color.RGBA{G: 160, B: 255, A: 255}

// Process extracts the regions of every selected page of path, writes crops
// (and optional overlays) to the output directory and assembles the crops
// into the output PDF. The first page error cancels the remaining pages.
func (p *Pipeline) Process(ctx context.Context, path string) (*Result, error) {
	timer := common.NewNamedTimer("extract")

	input, cleanup, err := pdf.Unlock(path, p.cfg.Credentials)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	src, err := p.open(input, p.cfg.Backend)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	pages, err := pdf.SelectPages(p.cfg.Pages, src.PageCount())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.cfg.OutDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	slog.Info("Processing document", "file", path, "pages", len(pages), "workers", p.cfg.Workers)

	results, err := p.processPages(ctx, src, pages)
	if err != nil {
		return nil, err
	}

	res := &Result{Input: path, Pages: results}
	res.totals()

	if p.cfg.OutputPDF != "" {
		crops := res.Crops()
		switch err := assemble.Assemble(crops, p.cfg.OutputPDF, p.cfg.Assemble); {
		case errors.Is(err, assemble.ErrNoImages):
			slog.Warn("No regions found, skipping PDF assembly", "file", path)
		case err != nil:
			return nil, err
		default:
			res.Output = p.cfg.OutputPDF
		}
	}

	res.Duration = timer.Stop()
	slog.Info("Document processed", "file", path, "boxes", res.TotalMerged, "duration", timer)
	return res, nil
}

// processPages runs processPage for every page on a bounded errgroup. Results
// land in a slice indexed by page position.
func (p *Pipeline) processPages(ctx context.Context, src pdf.Source, pages []int) ([]PageResult, error) {
	results := make([]PageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	p.progress.OnStart(len(pages))
	var done atomic.Int64

	for i, page := range pages {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := p.processPage(gctx, src, page)
			if err != nil {
				p.progress.OnError(page, err)
				return fmt.Errorf("page %d: %w", page, err)
			}
			results[i] = res
			if p.observer != nil {
				p.observer.ObservePage(res)
			}
			p.progress.OnProgress(int(done.Add(1)), len(pages))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Scheduling stops silently on cancellation; report it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.progress.OnComplete()
	return results, nil
}

func (p *Pipeline) processPage(ctx context.Context, src pdf.Source, page int) (PageResult, error) {
	timer := common.NewTimer()
	if err := ctx.Err(); err != nil {
		return PageResult{}, err
	}

	img, err := src.RenderPage(page, p.cfg.DPI)
	if err != nil {
		return PageResult{}, err
	}
	b := img.Bounds()
	res := PageResult{Page: page, Width: b.Dx(), Height: b.Dy()}

	if p.cfg.SavePages {
		res.PageImage = filepath.Join(p.cfg.OutDir, fmt.Sprintf("pg%d.png", page))
		if err := utils.SavePNG(img, res.PageImage); err != nil {
			return PageResult{}, err
		}
	}

	res.Detected, err = p.detector.Detect(ctx, img)
	if err != nil {
		return PageResult{}, err
	}
	for _, issue := range boxes.Classify(res.Detected) {
		slog.Debug("Detected rectangle issue", "page", page, "index", issue.Index, "rect", issue.Rect.String(), "kind", issue.Kind)
	}

	res.Merged, err = p.merger.Merge(res.Detected)
	if err != nil {
		return PageResult{}, err
	}

	res.Crops, err = p.writeCrops(img, page, res.Merged)
	if err != nil {
		return PageResult{}, err
	}

	if p.cfg.Overlay {
		overlay := RenderOverlay(img, res.Detected, res.Merged, detectedColor, utils.ParseHexColor(p.cfg.OverlayColor))
		res.Overlay = filepath.Join(p.cfg.OutDir, fmt.Sprintf("pg%d_overlay.png", page))
		if err := utils.SavePNG(overlay, res.Overlay); err != nil {
			return PageResult{}, err
		}
	}

	res.Duration = timer.Stop()
	slog.Debug("Page processed", "page", page, "detected", len(res.Detected), "merged", len(res.Merged), "duration", res.Duration)
	return res, nil
}

// writeCrops saves one PNG per merged rectangle, numbered from 1. Rectangles
// are clamped to the page; empty crops are skipped.
func (p *Pipeline) writeCrops(img image.Image, page int, merged []boxes.Rect) ([]string, error) {
	crops := make([]string, 0, len(merged))
	for i, r := range merged {
		cropped := utils.CropImageRect(img, r.ImageRect())
		if cropped == nil {
			slog.Warn("Skipping empty crop", "page", page, "box", i+1, "rect", r.String())
			continue
		}
		path := filepath.Join(p.cfg.OutDir, fmt.Sprintf("pg%d_bbox_%d.png", page, i+1))
		if err := utils.SavePNG(cropped, path); err != nil {
			return nil, err
		}
		crops = append(crops, path)
	}
	return crops, nil
}
