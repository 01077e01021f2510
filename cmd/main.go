package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kass/go-gazetteer/pkg/centroid"
	"github.com/kass/go-gazetteer/pkg/chart"
	"github.com/kass/go-gazetteer/pkg/config"
	"github.com/kass/go-gazetteer/pkg/geo"
	"github.com/kass/go-gazetteer/pkg/infiltration"
	"github.com/kass/go-gazetteer/pkg/logging"
	"github.com/kass/go-gazetteer/pkg/models"
	"github.com/kass/go-gazetteer/pkg/report"
	"github.com/kass/go-gazetteer/pkg/shapefile"
)

var (
	configFile string
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "gazetteer",
	Short:         "Census gazetteer centroid extractor and infiltration calculator",
	Long:          `Extract ZCTA centroids from a Census gazetteer file into a WGS84 point shapefile, inspect the result, and evaluate Green-Ampt infiltration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger = logging.Build(logging.Config{Level: cfg.Log.Level, Console: cfg.Log.Console}, os.Stderr)
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Write gazetteer centroids to a point shapefile",
	Long:  `Read the gazetteer, drop rows without usable coordinates, and write identifier plus point geometry as a WGS84 shapefile. An existing shapefile at the output path is replaced.`,
	RunE:  runExtract,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Plot a written centroid shapefile to PNG",
	RunE:  runRender,
}

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Find the centroids closest to a location",
	Long:  `Load a written centroid shapefile into an R-tree and list the nearest centroids, or every centroid within a radius, with great-circle distances.`,
	RunE:  runNearest,
}

var infiltrationCmd = &cobra.Command{
	Use:   "infiltration",
	Short: "Evaluate Green-Ampt ponding and chart rate against volume",
	RunE:  runInfiltration,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration as YAML",
	Args:  cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: runConfigInit,
}

var (
	inputPath  string
	outputPath string
	renderPath string
	render     bool

	queryLat     float64
	queryLon     float64
	numNeighbors int
	searchRadius float64

	chartPath string
	cfgFlags  struct {
		ks, thetaS, thetaI, psi, rain float64
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	extractCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Gazetteer file (overrides config)")
	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Shapefile path (overrides config)")
	extractCmd.Flags().BoolVar(&render, "render", false, "Reload the written shapefile and plot it")

	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Shapefile to read (overrides config)")
	renderCmd.Flags().StringVar(&renderPath, "png", "", "PNG path (overrides config)")

	nearestCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Shapefile to read (overrides config)")
	nearestCmd.Flags().Float64Var(&queryLat, "lat", 0, "Query latitude")
	nearestCmd.Flags().Float64Var(&queryLon, "lon", 0, "Query longitude")
	nearestCmd.Flags().IntVarP(&numNeighbors, "neighbors", "k", 5, "Number of nearest centroids")
	nearestCmd.Flags().Float64VarP(&searchRadius, "radius", "r", 0, "Search radius in km (0 lists k nearest)")
	_ = nearestCmd.MarkFlagRequired("lat")
	_ = nearestCmd.MarkFlagRequired("lon")

	infiltrationCmd.Flags().Float64Var(&cfgFlags.ks, "ks", 0, "Saturated hydraulic conductivity (in/hr)")
	infiltrationCmd.Flags().Float64Var(&cfgFlags.thetaS, "theta-s", 0, "Saturated moisture content")
	infiltrationCmd.Flags().Float64Var(&cfgFlags.thetaI, "theta-i", 0, "Initial moisture content")
	infiltrationCmd.Flags().Float64Var(&cfgFlags.psi, "psi", 0, "Wetting front suction head (in)")
	infiltrationCmd.Flags().Float64Var(&cfgFlags.rain, "rain", 0, "Rainfall intensity (in/hr)")
	infiltrationCmd.Flags().StringVar(&chartPath, "chart", "", "PNG path (overrides config)")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(extractCmd, renderCmd, nearestCmd, infiltrationCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("input") {
		cfg.Input = inputPath
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = outputPath
	}

	_, res, err := centroid.NewExtractor(cfg, logger, cmd.OutOrStdout()).Run()
	if err != nil {
		return err
	}
	report.New(cmd.OutOrStdout()).Extraction(res)

	if !render {
		return nil
	}
	return renderShapefile(cfg.Output, cfg.Render)
}

func runRender(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("output") {
		cfg.Output = outputPath
	}
	if cmd.Flags().Changed("png") {
		cfg.Render = renderPath
	}

	return renderShapefile(cfg.Output, cfg.Render)
}

// renderShapefile plots what is on disk, so extract --render shows the
// written file rather than the in-memory dataset
func renderShapefile(shp, png string) error {
	contents, err := shapefile.Read(shp)
	if err != nil {
		return err
	}
	if err := chart.Centroids(contents.Dataset, png); err != nil {
		return err
	}
	logger.Info().Str("path", png).Int("centroids", contents.Dataset.Len()).Msg("centroid plot saved")
	return nil
}

func runNearest(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("output") {
		cfg.Output = outputPath
	}

	contents, err := shapefile.Read(cfg.Output)
	if err != nil {
		return err
	}

	index := geo.NewIndex()
	index.Load(contents.Dataset)
	logger.Debug().Int("centroids", index.Size()).Str("path", cfg.Output).Msg("index loaded")

	loc := models.Location{Lat: queryLat, Lon: queryLon}
	var hits []geo.Neighbor
	if searchRadius > 0 {
		hits, err = index.SearchRadius(loc, searchRadius)
		if err != nil {
			return err
		}
	} else {
		hits = index.NearestNeighbors(loc, numNeighbors)
	}

	return report.New(cmd.OutOrStdout()).Neighbors(hits)
}

func runInfiltration(cmd *cobra.Command, args []string) error {
	in := cfg.Infiltration
	flags := cmd.Flags()
	if flags.Changed("ks") {
		in.Ks = cfgFlags.ks
	}
	if flags.Changed("theta-s") {
		in.ThetaS = cfgFlags.thetaS
	}
	if flags.Changed("theta-i") {
		in.ThetaI = cfgFlags.thetaI
	}
	if flags.Changed("psi") {
		in.Psi = cfgFlags.psi
	}
	if flags.Changed("rain") {
		in.RainIntensity = cfgFlags.rain
	}
	if flags.Changed("chart") {
		in.Chart = chartPath
	}

	params := infiltration.Params{
		Ks:            in.Ks,
		ThetaS:        in.ThetaS,
		ThetaI:        in.ThetaI,
		Psi:           in.Psi,
		RainIntensity: in.RainIntensity,
	}
	if !params.PondingPossible() {
		logger.Warn().
			Float64("rain_intensity", params.RainIntensity).
			Float64("ks", params.Ks).
			Msg("rain intensity does not exceed Ks; ponding volume and time are not physical")
	}

	curve, err := infiltration.Compute(params, in.FMax, in.Points)
	if err != nil {
		return err
	}

	if err := chart.Infiltration(curve, params, in.Chart); err != nil {
		return err
	}
	report.New(cmd.OutOrStdout()).Infiltration(curve, in.Chart)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "gazetteer.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
