package main

import (
	"strings"
	"testing"

	json "github.com/KevinWang15/go-json5"
)

func baseTable() map[string]interface{} {
	return map[string]interface{}{
		"pattern": map[string]interface{}{
			"use_default_objects_bool": true,
		},
		"centre": map[string]interface{}{
			"x_center":   50.0,
			"y_center":   50.0,
			"radial_min": 10.0,
			"radial_max": 30.0,
		},
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	var job Job
	msg, ok := validateJsonFileAndFillJob(baseTable(), &job)
	if !ok {
		t.Fatalf("validation failed: %s", msg)
	}

	if !job.PatternGiven || !job.Pattern.Default {
		t.Error("pattern group not picked up")
	}
	if job.Pattern.SizeX != 100 || job.Pattern.SizeY != 100 || job.Pattern.Scale != 1 {
		t.Errorf("pattern defaults = %+v", job.Pattern)
	}
	if !job.Pattern.Blur || job.Pattern.BlurSigma != 1 {
		t.Errorf("blur defaults = %+v", job.Pattern)
	}
	if !job.Pattern.Downscale || job.Pattern.DownscaleFactor != 5 {
		t.Errorf("downscale defaults = %+v", job.Pattern)
	}
	if job.CentreX != 50 || job.CentreY != 50 {
		t.Errorf("centre = (%v, %v), want (50, 50)", job.CentreX, job.CentreY)
	}
	if job.Steps != 5 || job.StepSize != 1 || job.AngleN != 8 {
		t.Errorf("search defaults = steps %d, step_size %v, angle_n %d", job.Steps, job.StepSize, job.AngleN)
	}
	if !job.ShowProgressBar {
		t.Error("progress bar should default to on")
	}
	if job.WindowSizePixels != 0 {
		t.Errorf("window size = %d, want headless default 0", job.WindowSizePixels)
	}
	if job.DataPNGScale != 4000 {
		t.Errorf("data png scale = %v, want 4000", job.DataPNGScale)
	}
}

func TestValidateReportsOffendingField(t *testing.T) {
	cases := []struct {
		name string
		edit func(table map[string]interface{})
		want string
	}{
		{
			"missing centre group",
			func(table map[string]interface{}) { delete(table, "centre") },
			"centre group not found",
		},
		{
			"wrong centre type",
			func(table map[string]interface{}) {
				table["centre"].(map[string]interface{})["x_center"] = "fifty"
			},
			"centre.x_center: is not a float64",
		},
		{
			"missing radial span",
			func(table map[string]interface{}) {
				delete(table["centre"].(map[string]interface{}), "radial_max")
			},
			"centre.radial_max: not found",
		},
		{
			"inverted radial span",
			func(table map[string]interface{}) {
				table["centre"].(map[string]interface{})["radial_max"] = 5.0
			},
			"centre.radial_max: must be greater",
		},
		{
			"missing pattern group",
			func(table map[string]interface{}) { delete(table, "pattern") },
			"pattern group not found",
		},
		{
			"pattern with external image",
			func(table map[string]interface{}) { table["path_to_external_image"] = "some.png" },
			"remove this group",
		},
		{
			"pattern without objects",
			func(table map[string]interface{}) {
				table["pattern"] = map[string]interface{}{}
			},
			"pattern: has no objects",
		},
		{
			"bad disk entry",
			func(table map[string]interface{}) {
				table["pattern"] = map[string]interface{}{
					"disks": []interface{}{
						map[string]interface{}{"x_center": 50.0, "y_center": 50.0, "intensity": 10.0},
					},
				}
			},
			"pattern.disks[0].radius: not found",
		},
		{
			"bad flag type",
			func(table map[string]interface{}) { table["show_input_bool"] = 1.0 },
			"show_input_bool: is not a bool",
		},
		{
			"bad output path type",
			func(table map[string]interface{}) {
				table["output"] = map[string]interface{}{"mrc": 5.0}
			},
			"output.mrc: is not a string",
		},
	}

	for _, c := range cases {
		table := baseTable()
		c.edit(table)
		var job Job
		msg, ok := validateJsonFileAndFillJob(table, &job)
		if ok {
			t.Errorf("%s: validation passed, want failure", c.name)
			continue
		}
		if !strings.Contains(msg, c.want) {
			t.Errorf("%s: message %q does not mention %q", c.name, msg, c.want)
		}
	}
}

func TestValidateExternalImageNeedsNoPattern(t *testing.T) {
	table := baseTable()
	delete(table, "pattern")
	table["path_to_external_image"] = "pattern.mrc"

	var job Job
	msg, ok := validateJsonFileAndFillJob(table, &job)
	if !ok {
		t.Fatalf("validation failed: %s", msg)
	}
	if job.PathToExternalImage != "pattern.mrc" {
		t.Errorf("external image path = %q", job.PathToExternalImage)
	}
	if job.PatternGiven {
		t.Error("pattern group reported present")
	}
}

const sampleJSON5 = `{
	// synthetic ring with an offset centre
	title: "offset ring",
	show_progressbar_bool: false,
	pattern: {
		size_x: 120,
		size_y: 120,
		rings: [
			{x_center: 60, y_center: 58, radius: 25, intensity: 8, line_width_pixels: 2},
		],
	},
	centre: {x_center: 60, y_center: 58, steps: 3, radial_min: 15, radial_max: 35},
	output: {
		view_png: "view.png",
		data_png_scale: 2000,
	},
}`

func TestValidateJSON5ParameterFile(t *testing.T) {
	var jsonTable map[string]interface{}
	if err := json.Unmarshal([]byte(sampleJSON5), &jsonTable); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	var job Job
	msg, ok := validateJsonFileAndFillJob(jsonTable, &job)
	if !ok {
		t.Fatalf("validation failed: %s", msg)
	}

	if job.Title != "offset ring" || job.ShowProgressBar {
		t.Errorf("title %q, progress %v", job.Title, job.ShowProgressBar)
	}
	if job.Pattern.SizeX != 120 || job.Pattern.SizeY != 120 {
		t.Errorf("pattern size = %vx%v, want 120x120", job.Pattern.SizeX, job.Pattern.SizeY)
	}
	if len(job.Rings) != 1 {
		t.Fatalf("got %d rings, want 1", len(job.Rings))
	}
	ring := job.Rings[0]
	if ring.XCenter != 60 || ring.YCenter != 58 || ring.Radius != 25 || ring.Intensity != 8 || ring.LineWidthPixels != 2 {
		t.Errorf("ring = %+v", ring)
	}
	if job.Steps != 3 || job.StepSize != 1 || job.AngleN != 8 {
		t.Errorf("search options = %d/%v/%d", job.Steps, job.StepSize, job.AngleN)
	}
	if job.RadialMin != 15 || job.RadialMax != 35 {
		t.Errorf("radial span = [%v, %v)", job.RadialMin, job.RadialMax)
	}
	if job.ViewPNGPath != "view.png" || job.DataPNGScale != 2000 {
		t.Errorf("outputs = %q scale %v", job.ViewPNGPath, job.DataPNGScale)
	}
}
