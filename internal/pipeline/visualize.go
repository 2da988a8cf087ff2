package pipeline

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/MeKo-Tech/docextract/internal/utils"
)

// RenderOverlay returns an RGBA copy of img with the detected rectangles
// outlined thinly and the merged rectangles outlined thickly on top.
// Rectangles are in img's coordinate space.
func RenderOverlay(img image.Image, detected, merged []boxes.Rect, detectedColor, mergedColor color.Color) *image.RGBA {
	if img == nil {
		return nil
	}
	dst := utils.CloneRGBA(img)
	off := img.Bounds().Min

	for _, r := range detected {
		utils.DrawRect(dst, r.ImageRect().Sub(off), detectedColor, 1)
	}
	for _, r := range merged {
		utils.DrawRect(dst, r.ImageRect().Sub(off), mergedColor, 3)
	}
	return dst
}
