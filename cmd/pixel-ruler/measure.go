package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ironsheep/pixel-ruler/internal/boundary"
	"github.com/ironsheep/pixel-ruler/internal/overlay"
	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// measureOutput is printed by the measure command.
type measureOutput struct {
	Image     string          `json:"image"`
	Result    boundary.Result `json:"result"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Label     string          `json:"label"`
	Mode      boundary.Mode   `json:"mode"`
	Metric    boundary.Metric `json:"metric"`
	Threshold float64         `json:"threshold"`
	Rendered  string          `json:"rendered,omitempty"`
}

func newMeasureCmd() *cobra.Command {
	var (
		imagePath  string
		x, y       int
		renderPath string
		hideLabel  bool
	)

	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Scan an image file from one pixel and print the limits as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := raster.Load(imagePath)
			if err != nil {
				return err
			}
			q := boundary.Query{
				Origin:    boundary.Point{X: x, Y: y},
				Threshold: cfg.Threshold,
				Mode:      cfg.Mode,
				Metric:    cfg.Metric,
			}
			res, err := boundary.ScanParallel(img, q)
			if err != nil {
				return err
			}

			m := boundary.Measure(res, q.Mode)
			out := measureOutput{
				Image:     imagePath,
				Result:    res,
				Width:     m.Width,
				Height:    m.Height,
				Label:     m.Label(),
				Mode:      q.Mode,
				Metric:    q.Metric,
				Threshold: q.Threshold,
			}

			if renderPath != "" {
				opts := overlay.DefaultOptions()
				opts.HideLabel = hideLabel
				if err := overlay.Save(renderPath, overlay.Render(img, res, q.Mode, opts)); err != nil {
					return err
				}
				out.Rendered = renderPath
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Image file to scan")
	cmd.Flags().IntVar(&x, "x", 0, "Origin X coordinate")
	cmd.Flags().IntVar(&y, "y", 0, "Origin Y coordinate")
	cmd.Flags().StringVarP(&renderPath, "render", "r", "", "Also write the overlay to this PNG")
	cmd.Flags().BoolVar(&hideLabel, "hide-label", false, "Omit the measurement label from the rendered overlay")
	cmd.MarkFlagRequired("image")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")
	return cmd
}
