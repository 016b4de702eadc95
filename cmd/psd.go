package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsheet-sim/flowsheet-sim/sim/psd"
)

var (
	psdF80   float64 // Characteristic size for the synthesized curve, mm
	psdScale float64 // Optional size reduction ratio applied to the curve
)

// psdCmd prints the synthesized size distribution for an F80
var psdCmd = &cobra.Command{
	Use:   "psd",
	Short: "Print the size distribution synthesized from an F80",
	Run: func(cmd *cobra.Command, args []string) {
		d := psd.FromF80(psdF80)
		if d == nil {
			logrus.Fatalf("--f80 must be positive, got %v", psdF80)
		}
		if psdScale > 0 {
			d = d.ScaleByFactor(psdScale)
		}
		printPSD(os.Stdout, d)
	},
}

func printPSD(w io.Writer, d *psd.PSD) {
	fmt.Fprintln(w, "   size_mm  passing_pct")
	for _, p := range d.Points() {
		fmt.Fprintf(w, "%10.4g  %11.2f\n", p.Size, p.Passing)
	}
	fmt.Fprintf(w, "P20=%.4g P50=%.4g P80=%.4g P98=%.4g mm\n", d.P20(), d.P50(), d.P80(), d.P98())
}

func init() {
	psdCmd.Flags().Float64Var(&psdF80, "f80", 0, "F80 in mm")
	psdCmd.Flags().Float64Var(&psdScale, "scale", 0, "Divide every size by this reduction ratio")
}
