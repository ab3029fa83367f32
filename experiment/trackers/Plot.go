package trackers

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SaveReturnPlot plots episodic returns against episode number and
// writes the figure to path. The image format follows the path
// extension.
func SaveReturnPlot(returns []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Episodic return"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"

	points := make(plotter.XYs, len(returns))
	for i, v := range returns {
		points[i] = plotter.XY{X: float64(i), Y: v}
	}

	if err := plotutil.AddLinePoints(p, "return", points); err != nil {
		return fmt.Errorf("saveReturnPlot: %v", err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saveReturnPlot: could not save figure: %v", err)
	}
	return nil
}
