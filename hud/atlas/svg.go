package atlas

import (
	"fmt"
	"image"
	"io"
)

// WriteSVG renders an occupancy diagram for one layer: the layer outline
// plus one rectangle per allocation.
//
// Parameters:
//   - w: destination for the SVG document
//   - size: the layer dimension in pixels
//   - rects: the allocated rectangles
//
// Returns:
//   - error: the first write error, if any
func WriteSVG(w io.Writer, size int, rects []image.Rectangle) error {
	if _, err := fmt.Fprintf(w,
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		size, size, size, size); err != nil {
		return fmt.Errorf("atlas: failed to write svg: %w", err)
	}
	if _, err := fmt.Fprintf(w, "<rect width=\"%d\" height=\"%d\" fill=\"#1c1c1c\"/>\n", size, size); err != nil {
		return fmt.Errorf("atlas: failed to write svg: %w", err)
	}
	for _, r := range rects {
		if _, err := fmt.Fprintf(w,
			"<rect x=\"%d\" y=\"%d\" width=\"%d\" height=\"%d\" fill=\"#4f81bd\" fill-opacity=\"0.6\" stroke=\"#dce6f1\" stroke-width=\"1\"/>\n",
			r.Min.X, r.Min.Y, r.Dx(), r.Dy()); err != nil {
			return fmt.Errorf("atlas: failed to write svg: %w", err)
		}
	}
	if _, err := io.WriteString(w, "</svg>\n"); err != nil {
		return fmt.Errorf("atlas: failed to write svg: %w", err)
	}
	return nil
}

// WriteLayerSVG writes the occupancy diagram of one layer of the set.
func (s *Set[S]) WriteLayerSVG(i int, w io.Writer) error {
	return WriteSVG(w, s.layers[i].Size(), s.LayerRects(i))
}
