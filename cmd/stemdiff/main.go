package main

import (
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	json "github.com/KevinWang15/go-json5"

	"github.com/stemdiff/stemdiff/mrc"
	"github.com/stemdiff/stemdiff/radial"
	"github.com/stemdiff/stemdiff/render"
	"github.com/stemdiff/stemdiff/signal"
	"github.com/stemdiff/stemdiff/synth"
)

const version = "1_0_0"

func main() {

	programStart := time.Now()

	// We supply an ID (hopefully unique) because we may need to use the preferences API
	myApp := app.NewWithID("com.github.stemdiff.stemdiff")
	w := myApp.NewWindow("stemdiff - synthetic diffraction patterns and ring centre refinement")
	w.Resize(fyne.Size{Height: 800, Width: 1200})

	args := os.Args

	if len(args) != 2 {
		fmt.Println("\n\tWrong number of arguments.\n\tUsage: stemdiff <parameter-file>")
		os.Exit(1)
	}

	path := args[1]

	// Read the Json5 (or Json) parameter file
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tAttempt to read input file %q failed: %w\n", path, err))
		os.Exit(2)
	}

	// Parse json(5) data into a generic container
	var jsonTable map[string]interface{}
	err = json.Unmarshal(data, &jsonTable)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tFormat error in file %q: %w\n", path, err))
		os.Exit(3)
	}

	var job Job
	msg, ok := validateJsonFileAndFillJob(jsonTable, &job)
	if !ok {
		fmt.Println(msg)
		os.Exit(4)
	}

	// Check for user wanting printout of complete jsonTable
	if job.ShowInput {
		fmt.Printf("%s", "\nPrintout of complete jsonTable contents...\n")
		fmt.Println(string(data))
	}

	fmt.Printf("\nVersion %s\n\n", version)

	start := time.Now() // Time acquisition of the diffraction image

	var sig *signal.Signal2D

	if job.PathToExternalImage != "" {
		sig, err = loadExternalImage(&job)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tAttempt to read external image %q failed: %w\n", job.PathToExternalImage, err))
			os.Exit(5)
		}
		fmt.Printf("Loaded a %dx%d image from %q\n", sig.Cols(), sig.Rows(), job.PathToExternalImage)
	} else {
		gen, err := synth.NewGenerator(job.Pattern)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tPattern setup failed: %w\n", err))
			os.Exit(6)
		}
		for _, d := range job.Disks {
			if err := gen.AddDisk(d.XCenter, d.YCenter, d.Radius, d.Intensity); err != nil {
				fmt.Println(fmt.Errorf("\n\tAdding a disk failed: %w\n", err))
				os.Exit(6)
			}
		}
		for _, r := range job.Rings {
			if err := gen.AddRing(r.XCenter, r.YCenter, r.Radius, r.Intensity, r.LineWidthPixels); err != nil {
				fmt.Println(fmt.Errorf("\n\tAdding a ring failed: %w\n", err))
				os.Exit(6)
			}
		}
		sig = gen.Signal()
		fmt.Printf("Generated a %dx%d test pattern from %d objects\n", sig.Cols(), sig.Rows(), len(gen.Masks()))
	}

	elapsed := time.Since(start)
	fmt.Printf("Preparation of the diffraction image took %s\n\n", elapsed)

	// The centre search reads the approximate centre from the axis offsets.
	sig.XAxis.Offset = -job.CentreX
	sig.YAxis.Offset = -job.CentreY

	opts := radial.Options{
		Steps:        job.Steps,
		StepSize:     job.StepSize,
		AngleN:       job.AngleN,
		ShowProgress: job.ShowProgressBar,
	}
	span := radial.Span{Lo: job.RadialMin, Hi: job.RadialMax}

	start = time.Now()
	candidates := (2*job.Steps + 1) * (2*job.Steps + 1)
	fmt.Printf("Searching %d candidate centres around (%0.3f, %0.3f)\n", candidates, job.CentreX, job.CentreY)

	offsets, err := radial.OptimalCentrePosition(sig, span, opts)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tCentre search failed: %w\n", err))
		os.Exit(7)
	}

	elapsed = time.Since(start)
	fmt.Printf("Centre search took %s\n", elapsed)

	bestX, bestY := offsets.CoordinateOfMin()
	fmt.Printf("\nRefined centre estimate: (%0.3f, %0.3f)\n\n", bestX, bestY)

	if job.ProfilesPath != "" {
		stack, err := radial.AngularSliceIntegration(sig, job.AngleN, bestX, bestY)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tIntegration about the refined centre failed: %w\n", err))
			os.Exit(8)
		}
		stack, err = stack.Crop(job.RadialMin, job.RadialMax)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tCropping the refined-centre profiles failed: %w\n", err))
			os.Exit(8)
		}
		err = render.SaveProfilesPlot(job.ProfilesPath, stack, "Radial profiles about the refined centre", 1000, 500)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tWriting of %q failed: %w\n", job.ProfilesPath, err))
			os.Exit(8)
		}
		fmt.Printf("Wrote %q\n", job.ProfilesPath)
	}

	if job.ViewPNGPath != "" {
		imgForDisplay, err := render.GrayImage(sig, 0.0, 100)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tCreation of the display image failed: %w\n", err))
			os.Exit(9)
		}
		if err = render.SavePNG(job.ViewPNGPath, imgForDisplay); err != nil {
			fmt.Println(fmt.Errorf("\n\tWriting of %q failed: %w\n", job.ViewPNGPath, err))
			os.Exit(9)
		}
		fmt.Printf("Wrote %q\n", job.ViewPNGPath)
	}

	if job.DataPNGPath != "" {
		// The scientific (well-defined scaling) version of the pattern
		dataImage, err := render.Gray16Image(sig, job.DataPNGScale)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tCreation of the 16-bit data image failed: %w\n", err))
			os.Exit(10)
		}
		if err = render.SavePNG(job.DataPNGPath, dataImage); err != nil {
			fmt.Println(fmt.Errorf("\n\tWriting of %q failed: %w\n", job.DataPNGPath, err))
			os.Exit(10)
		}
		fmt.Printf("Wrote %q\n", job.DataPNGPath)
	}

	if job.TIFFPath != "" {
		dataImage, err := render.Gray16Image(sig, job.DataPNGScale)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tCreation of the 16-bit data image failed: %w\n", err))
			os.Exit(11)
		}
		if err = render.SaveTIFF(job.TIFFPath, dataImage); err != nil {
			fmt.Println(fmt.Errorf("\n\tWriting of %q failed: %w\n", job.TIFFPath, err))
			os.Exit(11)
		}
		fmt.Printf("Wrote %q\n", job.TIFFPath)
	}

	if job.WebPPath != "" {
		imgForDisplay, err := render.GrayImage(sig, 0.0, 100)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tCreation of the display image failed: %w\n", err))
			os.Exit(12)
		}
		if err = render.SaveWebP(job.WebPPath, imgForDisplay); err != nil {
			fmt.Println(fmt.Errorf("\n\tWriting of %q failed: %w\n", job.WebPPath, err))
			os.Exit(12)
		}
		fmt.Printf("Wrote %q\n", job.WebPPath)
	}

	if job.MRCPath != "" {
		if err = mrc.Write(job.MRCPath, sig); err != nil {
			fmt.Println(fmt.Errorf("\n\tWriting of %q failed: %w\n", job.MRCPath, err))
			os.Exit(13)
		}
		fmt.Printf("Wrote %q\n", job.MRCPath)
	}

	if job.OffsetMapPath != "" {
		err = render.SaveOffsetMapPlot(job.OffsetMapPath, offsets, "Centre search scores", 800, 600)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tWriting of %q failed: %w\n", job.OffsetMapPath, err))
			os.Exit(14)
		}
		fmt.Printf("Wrote %q\n", job.OffsetMapPath)
	}

	elapsed = time.Since(programStart)
	fmt.Printf("\nTotal program run time is %s\n", elapsed)

	if job.WindowSizePixels > 0 { // We have displays to make!
		size := job.WindowSizePixels

		winTitle := job.Title
		if winTitle == "" {
			winTitle = "stemdiff"
		}

		// w is our main window, created at the beginning of the program
		w.SetTitle(winTitle)
		w.SetPadded(false)
		w.CenterOnScreen()

		imgForDisplay, err := render.GrayImage(sig, 0.0, 100)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tCreation of the display image failed: %w\n", err))
			os.Exit(15)
		}

		img := canvas.NewImageFromImage(imgForDisplay)
		img.FillMode = canvas.ImageFillContain
		w.Resize(fyne.Size{Height: float32(size), Width: float32(size)})
		w.SetContent(container.NewStack(img))
		w.Show()

		mapImage, err := render.OffsetMapImage(offsets, "Centre search scores", 800, 600)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tCreation of the offset map plot failed: %w\n", err))
			os.Exit(15)
		}

		plotImg := canvas.NewImageFromImage(mapImage)
		plotImg.FillMode = canvas.ImageFillContain
		plotImg.SetMinSize(fyne.NewSize(800, 600))

		w2 := myApp.NewWindow("Offset scores")
		w2.SetContent(container.NewCenter(plotImg))
		w2.Resize(fyne.NewSize(850, 650))
		w2.Show()

		w.ShowAndRun()
	}
}

// loadExternalImage picks a reader from the filename: .mrc files carry their
// own calibration, 16-bit PNGs divide by the configured scaling, and
// anything else loads as an 8-bit grayscale view.
func loadExternalImage(job *Job) (*signal.Signal2D, error) {
	if mrc.IsMRCFile(job.PathToExternalImage) {
		return mrc.Read(job.PathToExternalImage)
	}
	if job.ExternalScaleGiven {
		if job.ExternalImageScale <= 0 {
			return nil, fmt.Errorf("external_image_scale must be positive, got %v", job.ExternalImageScale)
		}
		return render.LoadGray16PNG(job.PathToExternalImage, job.ExternalImageScale)
	}
	return render.LoadGrayPNG(job.PathToExternalImage)
}
