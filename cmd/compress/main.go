package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"go-image-compressor/internal/channel"
	"go-image-compressor/internal/compressor"
	"go-image-compressor/internal/factory"
	"go-image-compressor/internal/logger"
	"go-image-compressor/internal/preview"
	"go-image-compressor/internal/service"
	"go-image-compressor/internal/strategy"
	"go-image-compressor/pkg/models"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "compress",
		Usage: "SVD and DCT image compression of local files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "text or json",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Value:   0,
				Usage:   "DCT block workers, 0 for one per CPU",
				EnvVars: []string{"WORKERS"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print statistics as JSON",
			},
		},
		Before: func(c *cli.Context) error {
			logger.Configure(c.App.ErrWriter, c.String("log-level"), c.String("log-format"))
			if c.Int("workers") < 0 {
				return fmt.Errorf("workers cannot be a negative value")
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand(),
			componentCommand(),
			demoCommand(),
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "compress an image file and write the reconstruction",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "source image"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "reconstructed image, format from extension"},
			&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Value: string(compressor.AlgorithmDCT), Usage: "svd or dct"},
			&cli.IntFlag{Name: "parameter", Aliases: []string{"p"}, Value: 10, Usage: "SVD rank (0-indexed) or DCT kValue"},
			&cli.StringFlag{Name: "retention", Value: strategy.ZigzagName, Usage: "DCT retention: zigzag or antidiagonal"},
			&cli.StringFlag{Name: "remainder", Value: string(compressor.RemainderPassThrough), Usage: "DCT remainder: passthrough, zero or reject"},
			&cli.IntFlag{Name: "inflate", Value: 1, Usage: "nearest-neighbour enlargement factor of the output"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			img, err := loadChannels(c.String("input"))
			if err != nil {
				return err
			}

			components := factory.NewCompressorFactory(c.Int("workers"))
			defer components.Close()

			res, err := components.CreatePipeline().Process(img, cfg)
			if err != nil {
				return err
			}
			if err := saveImage(c.String("output"), res.Image.ToRGBA(), c.Int("inflate")); err != nil {
				return err
			}

			logger.WithRun("", string(cfg.Algorithm), cfg.Parameter).WithFields(logrus.Fields{
				"input":      c.String("input"),
				"output":     c.String("output"),
				"dims":       res.Stats.Dims.String(),
				"elapsed_ms": res.Elapsed.Milliseconds(),
			}).Info("Compression completed")
			return printStats(c.App.Writer, c.Bool("json"), c.String("input"), res.Stats)
		},
	}
}

func componentCommand() *cli.Command {
	return &cli.Command{
		Name:      "component",
		Usage:     "write a single rank-one SVD term of every channel",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "source image"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "component image"},
			&cli.IntFlag{Name: "rank", Aliases: []string{"r"}, Value: 0, Usage: "0-indexed term"},
			&cli.IntFlag{Name: "inflate", Value: 1, Usage: "nearest-neighbour enlargement factor of the output"},
		},
		Action: func(c *cli.Context) error {
			img, err := loadChannels(c.String("input"))
			if err != nil {
				return err
			}
			comp, err := compressor.NewSVDCompressor().IsolateImage(img, c.Int("rank"))
			if err != nil {
				return err
			}
			if err := saveImage(c.String("output"), comp.Image().ToRGBA(), c.Int("inflate")); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "rank %d singular values: %.4f %.4f %.4f\n",
				comp.Rank, comp.Values[0], comp.Values[1], comp.Values[2])
			return nil
		},
	}
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:      "demo",
		Usage:     "compress the built-in 8x8 sample with SVD rank 2 and DCT kValue 10",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output-dir", Usage: "write 512x512 previews of the sample and both reconstructions"},
			&cli.IntFlag{Name: "rank", Value: 2, Usage: "SVD rank"},
			&cli.IntFlag{Name: "kvalue", Value: 10, Usage: "DCT kValue"},
		},
		Action: func(c *cli.Context) error {
			sample := compressor.ReferenceSample()
			components := factory.NewCompressorFactory(c.Int("workers"))
			defer components.Close()
			pipeline := components.CreatePipeline()

			dir := c.String("output-dir")
			if dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
				if err := saveImage(filepath.Join(dir, "original.png"), sample.ToRGBA(), preview.DefaultFactor); err != nil {
					return err
				}
			}

			for _, cfg := range []compressor.Config{compressor.SVDConfig(c.Int("rank")), compressor.DCTConfig(c.Int("kvalue"))} {
				res, err := pipeline.Process(sample, cfg)
				if err != nil {
					return err
				}
				if err := printStats(c.App.Writer, c.Bool("json"), "sample", res.Stats); err != nil {
					return err
				}
				if dir == "" {
					continue
				}
				name := fmt.Sprintf("%s-%d.png", cfg.Algorithm, cfg.Parameter)
				if err := saveImage(filepath.Join(dir, name), res.Image.ToRGBA(), preview.DefaultFactor); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func configFromFlags(c *cli.Context) (compressor.Config, error) {
	alg, err := compressor.ParseAlgorithm(c.String("algorithm"))
	if err != nil {
		return compressor.Config{}, err
	}
	remainder, err := compressor.ParseRemainderPolicy(c.String("remainder"))
	if err != nil {
		return compressor.Config{}, err
	}
	if _, err := strategy.ParseRetention(c.String("retention")); err != nil {
		return compressor.Config{}, err
	}

	cfg := compressor.DefaultConfig()
	cfg.Algorithm = alg
	cfg.Parameter = c.Int("parameter")
	cfg.Retention = c.String("retention")
	cfg.Remainder = remainder
	return cfg, nil
}

func loadChannels(path string) (channel.Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return channel.Image{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return channel.Split(src)
}

func saveImage(path string, img image.Image, factor int) error {
	out, err := preview.Inflate(img, factor)
	if err != nil {
		return err
	}
	if err := imaging.Save(out, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func printStats(w io.Writer, asJSON bool, source string, stats compressor.Stats) error {
	if asJSON {
		return json.NewEncoder(w).Encode(struct {
			Source string                  `json:"source"`
			Stats  models.CompressionStats `json:"stats"`
		}{source, service.ToModelStats(stats)})
	}

	fmt.Fprintf(w, "%s %s/%d %s efficiency=%.4f%% accuracy=%.4f%% mse=%.4f",
		source, stats.Algorithm, stats.Parameter, stats.Dims, stats.Efficiency, stats.Accuracy, stats.MSE)
	if psnr := service.ToModelStats(stats).PSNR; psnr != nil {
		fmt.Fprintf(w, " psnr=%.2fdB", *psnr)
	}
	fmt.Fprintln(w)
	return nil
}
