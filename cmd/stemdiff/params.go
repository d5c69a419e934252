package main

import (
	"fmt"

	"github.com/stemdiff/stemdiff/synth"
)

// DiskEntry is one disk object from the parameter file.
type DiskEntry struct {
	XCenter   float64
	YCenter   float64
	Radius    float64
	Intensity float64
}

// RingEntry is one ring object from the parameter file.
type RingEntry struct {
	XCenter         float64
	YCenter         float64
	Radius          float64
	Intensity       float64
	LineWidthPixels float64
}

// Job collects everything one run needs: where the diffraction image comes
// from, how to search for the ring centre, and which artefacts to write.
type Job struct {
	ShowInput        bool
	ShowProgressBar  bool
	WindowSizePixels int
	Title            string

	PathToExternalImage string
	ExternalImageScale  float64
	ExternalScaleGiven  bool

	PatternGiven bool
	Pattern      synth.Config
	Disks        []DiskEntry
	Rings        []RingEntry

	CentreX   float64
	CentreY   float64
	Steps     int
	StepSize  float64
	AngleN    int
	RadialMin float64
	RadialMax float64

	ViewPNGPath   string
	DataPNGPath   string
	DataPNGScale  float64
	TIFFPath      string
	WebPPath      string
	MRCPath       string
	OffsetMapPath string
	ProfilesPath  string
}

func getLeafValue(jsonTable map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = jsonTable
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func floatField(entry map[string]interface{}, context, name string) (float64, string, bool) {
	v, ok := entry[name]
	if !ok {
		return 0, context + "." + name + ": not found", false
	}
	value, ok := v.(float64)
	if !ok {
		return 0, context + "." + name + ": is not a float64", false
	}
	return value, "", true
}

func validateJsonFileAndFillJob(jsonTable map[string]interface{}, job *Job) (string, bool) {
	msg := "No problem found in json file" // Initialize msg to presumed success.

	showInput, ok := getLeafValue(jsonTable, "show_input_bool")
	if !ok {
		job.ShowInput = false // default to false if this field is missing
	} else {
		job.ShowInput, ok = showInput.(bool)
		if !ok {
			msg = "show_input_bool: is not a bool"
			return msg, false
		}
	}

	showProgress, ok := getLeafValue(jsonTable, "show_progressbar_bool")
	if !ok {
		job.ShowProgressBar = true // default to a visible progress bar
	} else {
		job.ShowProgressBar, ok = showProgress.(bool)
		if !ok {
			msg = "show_progressbar_bool: is not a bool"
			return msg, false
		}
	}

	windowSize, ok := getLeafValue(jsonTable, "window_size_pixels")
	if !ok {
		job.WindowSizePixels = 0 // default to a headless run
	} else {
		wSize, ok := windowSize.(float64)
		if !ok {
			msg = "window_size_pixels: is not a float64"
			return msg, false
		}
		job.WindowSizePixels = int(wSize)
	}

	title, ok := getLeafValue(jsonTable, "title")
	if ok {
		job.Title, ok = title.(string)
		if !ok {
			msg = "title: is not a string"
			return msg, false
		}
	}

	patternRequired := true
	filePath, ok := getLeafValue(jsonTable, "path_to_external_image")
	if ok {
		job.PathToExternalImage, ok = filePath.(string)
		if !ok {
			msg = "path_to_external_image: is not a string"
			return msg, false
		}
		patternRequired = false
	}

	scale, ok := getLeafValue(jsonTable, "external_image_scale")
	if ok {
		job.ExternalImageScale, ok = scale.(float64)
		if !ok {
			msg = "external_image_scale: is not a float64"
			return msg, false
		}
		job.ExternalScaleGiven = true
	}

	// Check to see if a pattern group is present. Required unless an external
	// image is supplied, and disallowed alongside one.
	_, ok = getLeafValue(jsonTable, "pattern")
	job.PatternGiven = ok

	if ok {
		if !patternRequired {
			msg = "pattern: remove this group when path_to_external_image is given"
			return msg, false
		}
		if m, ok := fillPattern(jsonTable, job); !ok {
			return m, false
		}
	} else {
		if patternRequired {
			msg = "pattern group not found and is required."
			return msg, false
		}
	}

	// The centre group is always required.
	if _, ok = getLeafValue(jsonTable, "centre"); !ok {
		msg = "centre group not found and is required."
		return msg, false
	}

	v, ok := getLeafValue(jsonTable, "centre", "x_center")
	if !ok {
		msg = "centre.x_center: not found"
		return msg, false
	}
	job.CentreX, ok = v.(float64)
	if !ok {
		msg = "centre.x_center: is not a float64"
		return msg, false
	}

	v, ok = getLeafValue(jsonTable, "centre", "y_center")
	if !ok {
		msg = "centre.y_center: not found"
		return msg, false
	}
	job.CentreY, ok = v.(float64)
	if !ok {
		msg = "centre.y_center: is not a float64"
		return msg, false
	}

	steps, ok := getLeafValue(jsonTable, "centre", "steps")
	if !ok {
		job.Steps = 5 // default search grid half-width
	} else {
		value, ok := steps.(float64)
		if !ok {
			msg = "centre.steps: is not a float64"
			return msg, false
		}
		job.Steps = int(value)
	}

	stepSize, ok := getLeafValue(jsonTable, "centre", "step_size")
	if !ok {
		job.StepSize = 1.0 // default candidate spacing in pixels
	} else {
		job.StepSize, ok = stepSize.(float64)
		if !ok {
			msg = "centre.step_size: is not a float64"
			return msg, false
		}
	}

	angleN, ok := getLeafValue(jsonTable, "centre", "angle_n")
	if !ok {
		job.AngleN = 8 // default number of angular slices
	} else {
		value, ok := angleN.(float64)
		if !ok {
			msg = "centre.angle_n: is not a float64"
			return msg, false
		}
		job.AngleN = int(value)
	}

	v, ok = getLeafValue(jsonTable, "centre", "radial_min")
	if !ok {
		msg = "centre.radial_min: not found"
		return msg, false
	}
	job.RadialMin, ok = v.(float64)
	if !ok {
		msg = "centre.radial_min: is not a float64"
		return msg, false
	}

	v, ok = getLeafValue(jsonTable, "centre", "radial_max")
	if !ok {
		msg = "centre.radial_max: not found"
		return msg, false
	}
	job.RadialMax, ok = v.(float64)
	if !ok {
		msg = "centre.radial_max: is not a float64"
		return msg, false
	}

	if job.RadialMax <= job.RadialMin {
		msg = "centre.radial_max: must be greater than centre.radial_min"
		return msg, false
	}

	if m, ok := fillOutputs(jsonTable, job); !ok {
		return m, false
	}

	return msg, true
}

func fillPattern(jsonTable map[string]interface{}, job *Job) (string, bool) {
	job.Pattern = synth.Config{
		SizeX:           100,
		SizeY:           100,
		Scale:           1,
		Blur:            true,
		BlurSigma:       1,
		Downscale:       true,
		DownscaleFactor: 5,
	}

	sizeX, ok := getLeafValue(jsonTable, "pattern", "size_x")
	if ok {
		job.Pattern.SizeX, ok = sizeX.(float64)
		if !ok {
			return "pattern.size_x: is not a float64", false
		}
	}

	sizeY, ok := getLeafValue(jsonTable, "pattern", "size_y")
	if ok {
		job.Pattern.SizeY, ok = sizeY.(float64)
		if !ok {
			return "pattern.size_y: is not a float64", false
		}
	}

	axisScale, ok := getLeafValue(jsonTable, "pattern", "scale")
	if ok {
		job.Pattern.Scale, ok = axisScale.(float64)
		if !ok {
			return "pattern.scale: is not a float64", false
		}
	}

	blur, ok := getLeafValue(jsonTable, "pattern", "blur_bool")
	if ok {
		job.Pattern.Blur, ok = blur.(bool)
		if !ok {
			return "pattern.blur_bool: is not a bool", false
		}
	}

	blurSigma, ok := getLeafValue(jsonTable, "pattern", "blur_sigma")
	if ok {
		job.Pattern.BlurSigma, ok = blurSigma.(float64)
		if !ok {
			return "pattern.blur_sigma: is not a float64", false
		}
	}

	downscale, ok := getLeafValue(jsonTable, "pattern", "downscale_bool")
	if ok {
		job.Pattern.Downscale, ok = downscale.(bool)
		if !ok {
			return "pattern.downscale_bool: is not a bool", false
		}
	}

	factor, ok := getLeafValue(jsonTable, "pattern", "downscale_factor")
	if ok {
		value, ok := factor.(float64)
		if !ok {
			return "pattern.downscale_factor: is not a float64", false
		}
		job.Pattern.DownscaleFactor = int(value)
	}

	useDefaults, ok := getLeafValue(jsonTable, "pattern", "use_default_objects_bool")
	if ok {
		job.Pattern.Default, ok = useDefaults.(bool)
		if !ok {
			return "pattern.use_default_objects_bool: is not a bool", false
		}
	}

	disks, ok := getLeafValue(jsonTable, "pattern", "disks")
	if ok {
		list, ok := disks.([]interface{})
		if !ok {
			return "pattern.disks: is not a list", false
		}
		for i, item := range list {
			context := fmt.Sprintf("pattern.disks[%d]", i)
			entry, ok := item.(map[string]interface{})
			if !ok {
				return context + ": is not an object", false
			}
			var d DiskEntry
			var m string
			if d.XCenter, m, ok = floatField(entry, context, "x_center"); !ok {
				return m, false
			}
			if d.YCenter, m, ok = floatField(entry, context, "y_center"); !ok {
				return m, false
			}
			if d.Radius, m, ok = floatField(entry, context, "radius"); !ok {
				return m, false
			}
			if d.Intensity, m, ok = floatField(entry, context, "intensity"); !ok {
				return m, false
			}
			job.Disks = append(job.Disks, d)
		}
	}

	rings, ok := getLeafValue(jsonTable, "pattern", "rings")
	if ok {
		list, ok := rings.([]interface{})
		if !ok {
			return "pattern.rings: is not a list", false
		}
		for i, item := range list {
			context := fmt.Sprintf("pattern.rings[%d]", i)
			entry, ok := item.(map[string]interface{})
			if !ok {
				return context + ": is not an object", false
			}
			var r RingEntry
			var m string
			if r.XCenter, m, ok = floatField(entry, context, "x_center"); !ok {
				return m, false
			}
			if r.YCenter, m, ok = floatField(entry, context, "y_center"); !ok {
				return m, false
			}
			if r.Radius, m, ok = floatField(entry, context, "radius"); !ok {
				return m, false
			}
			if r.Intensity, m, ok = floatField(entry, context, "intensity"); !ok {
				return m, false
			}
			if r.LineWidthPixels, m, ok = floatField(entry, context, "line_width_pixels"); !ok {
				return m, false
			}
			job.Rings = append(job.Rings, r)
		}
	}

	if !job.Pattern.Default && len(job.Disks) == 0 && len(job.Rings) == 0 {
		return "pattern: has no objects (add disks, rings, or set use_default_objects_bool)", false
	}

	return "", true
}

func fillOutputs(jsonTable map[string]interface{}, job *Job) (string, bool) {
	job.DataPNGScale = 4000 // default 16-bit scaling

	stringFields := []struct {
		name string
		dst  *string
	}{
		{"view_png", &job.ViewPNGPath},
		{"data_png", &job.DataPNGPath},
		{"tiff", &job.TIFFPath},
		{"webp", &job.WebPPath},
		{"mrc", &job.MRCPath},
		{"offset_map_png", &job.OffsetMapPath},
		{"profiles_png", &job.ProfilesPath},
	}
	for _, field := range stringFields {
		v, ok := getLeafValue(jsonTable, "output", field.name)
		if !ok {
			continue
		}
		*field.dst, ok = v.(string)
		if !ok {
			return "output." + field.name + ": is not a string", false
		}
	}

	v, ok := getLeafValue(jsonTable, "output", "data_png_scale")
	if ok {
		value, ok := v.(float64)
		if !ok {
			return "output.data_png_scale: is not a float64", false
		}
		job.DataPNGScale = value
	}

	return "", true
}
