package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ProjectAether/navlink/internal/geo"
	"github.com/ProjectAether/navlink/internal/smartlink"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/spf13/cobra"
)

type snapResult struct {
	Name     string         `json:"name"`
	Start    core.Vector3   `json:"start"`
	End      core.Vector3   `json:"end"`
	LengthCm float64        `json:"lengthCm"`
	Aborted  bool           `json:"aborted,omitempty"`
	World    *core.LinkData `json:"world,omitempty"`
	// StartLonLat and EndLonLat are lon, lat, height in metres.
	StartLonLat []float64 `json:"startLonLat,omitempty"`
	EndLonLat   []float64 `json:"endLonLat,omitempty"`
}

type snapOptions struct {
	flags  snapSpec
	units  float64
	extra  float64
	yaw    float64
	file   string
	origin string
	asJSON bool
}

func newSnapCmd() *cobra.Command {
	opts := &snapOptions{}
	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Compute the snapped end position of a smart link",
		Long: `Snap places the end marker at the traversal distance of the magnitude,
measured from the start marker, exactly as the editor's Snap End To Magnitude does.
Use --file to snap a YAML batch of links.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnap(cmd, opts)
		},
	}

	def := smartlink.DefaultSettings()
	f := cmd.Flags()
	f.StringVar(&opts.flags.Name, "name", "link", "Link name")
	f.StringVar(&opts.flags.Start, "start", smartlink.DefaultStartLocal.String(), "Start marker position x,y,z (cm)")
	f.StringVar(&opts.flags.Magnitude, "magnitude", def.Magnitude.String(), "Traversal magnitude (Jump36..Jump348, Across128, Across256)")
	f.StringVar(&opts.flags.SnapMode, "mode", def.SnapMode.String(), "Snap mode (None, Up, Down, Across)")
	f.StringVar(&opts.flags.AcrossAxis, "axis", def.AcrossAxis.String(), "Across axis (Forward, Backward, Right, Left)")
	f.Float64Var(&opts.units, "units", def.UnitsToCm, "Centimetres per traversal unit")
	f.Float64Var(&opts.extra, "extra", def.AcrossExtraCm, "Extra centimetres added to across snaps")
	f.StringVar(&opts.flags.Location, "location", "", "Proxy world location x,y,z (cm); adds world coordinates")
	f.Float64Var(&opts.yaw, "yaw", 0, "Proxy yaw in degrees")
	f.StringVar(&opts.origin, "origin", "", "World origin lon,lat; adds WGS84 coordinates")
	f.StringVarP(&opts.file, "file", "f", "", "YAML batch file of links to snap")
	f.BoolVar(&opts.asJSON, "json", false, "Output in JSON format")
	return cmd
}

func runSnap(cmd *cobra.Command, opts *snapOptions) error {
	base := opts.flags
	base.UnitsToCm = &opts.units
	base.AcrossExtraCm = &opts.extra
	base.Yaw = &opts.yaw

	specs := []snapSpec{base}
	if opts.file != "" {
		batch, err := readBatchFile(opts.file)
		if err != nil {
			return err
		}
		defaults := batch.Defaults.over(base)
		specs = specs[:0]
		for i, s := range batch.Links {
			s = s.over(defaults)
			if s.Name == base.Name {
				s.Name = fmt.Sprintf("%s_%d", base.Name, i+1)
			}
			specs = append(specs, s)
		}
	}

	var georef *geo.Georeference
	if opts.origin != "" {
		g, err := parseOrigin(opts.origin)
		if err != nil {
			return err
		}
		georef = &g
	}

	results := make([]snapResult, 0, len(specs))
	for _, s := range specs {
		res, err := snapOne(s, georef)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		results = append(results, res)
	}

	if opts.asJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	return printSnapTable(cmd, results)
}

func snapOne(s snapSpec, georef *geo.Georeference) (snapResult, error) {
	settings, err := smartlink.SettingsFromRecord(core.LinkSettings{
		Magnitude:     s.Magnitude,
		SnapMode:      s.SnapMode,
		AcrossAxis:    s.AcrossAxis,
		UnitsToCm:     deref(s.UnitsToCm, smartlink.DefaultUnitsToCm),
		AcrossExtraCm: deref(s.AcrossExtraCm, 0),
	})
	if err != nil {
		return snapResult{}, err
	}
	start, err := geo.Vector3FromString(s.Start)
	if err != nil {
		return snapResult{}, fmt.Errorf("start: %w", err)
	}

	p := smartlink.New(s.Name, settings, nil, smartlink.WithEndpoints(start, start))
	p.SnapEndToMagnitude()
	link := p.LinkData()

	res := snapResult{
		Name:     s.Name,
		Start:    link.Start,
		End:      link.End,
		LengthCm: geo.Length3D(link),
		Aborted:  link.End == link.Start,
	}

	if s.Location == "" && georef == nil {
		return res, nil
	}
	tr := geo.Transform{Yaw: deref(s.Yaw, 0)}
	if s.Location != "" {
		if tr.Location, err = geo.Vector3FromString(s.Location); err != nil {
			return snapResult{}, fmt.Errorf("location: %w", err)
		}
	}
	world := tr.LinkToWorld(link)
	res.World = &world
	if georef != nil {
		res.StartLonLat = lonLat(*georef, world.Start)
		res.EndLonLat = lonLat(*georef, world.End)
	}
	return res, nil
}

func lonLat(g geo.Georeference, v core.Vector3) []float64 {
	lon, lat, h := g.LonLat(v)
	return []float64{lon, lat, h}
}

func parseOrigin(s string) (geo.Georeference, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return geo.Georeference{}, errors.New("origin must be lon,lat")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Georeference{}, fmt.Errorf("origin longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Georeference{}, fmt.Errorf("origin latitude: %w", err)
	}
	if lon < -180 || lon > 180 || lat < -85 || lat > 85 {
		return geo.Georeference{}, fmt.Errorf("origin %g,%g out of range", lon, lat)
	}
	return geo.Georeference{OriginLon: lon, OriginLat: lat}, nil
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func printSnapTable(cmd *cobra.Command, results []snapResult) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTART\tEND\tLENGTH (cm)")
	for _, r := range results {
		end := r.End.String()
		if r.Aborted {
			end = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", r.Name, r.Start, end, r.LengthCm)
	}
	return w.Flush()
}
