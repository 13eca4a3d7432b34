package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:        "snapshot",
		Description: "save and restore disk images in S3",
		Subcommands: []*cli.Command{{
			Name:        "push",
			Description: "upload the disk image",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "label",
					Usage: "a human-readable name for the snapshot",
					Value: "snapshot",
				},
			},
			Action: func(ctx *cli.Context) error {
				c, err := LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				if c.Backend != BackendFile {
					return fmt.Errorf(
						"snapshot push: wanted backend `%s`; found `%s`",
						BackendFile,
						c.Backend,
					)
				}
				s, err := c.Snapshotter()
				if err != nil {
					return err
				}
				image, err := os.Open(c.Image)
				if err != nil {
					return fmt.Errorf("snapshot push: %w", err)
				}
				defer image.Close()
				key, err := s.Push(ctx.String("label"), image)
				if err != nil {
					return err
				}
				fmt.Println(key)
				return nil
			},
		}, {
			Name:        "pull",
			Description: "download a snapshot as a disk image",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Usage:    "the snapshot's object key",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "output",
					Usage: "where to write the image; defaults to the configured image",
				},
			},
			Action: func(ctx *cli.Context) error {
				c, err := LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				s, err := c.Snapshotter()
				if err != nil {
					return err
				}
				output := ctx.String("output")
				if output == "" {
					output = c.Image
				}
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("snapshot pull: %w", err)
				}
				if err := s.Pull(ctx.String("key"), file); err != nil {
					file.Close()
					return err
				}
				return file.Close()
			},
		}, {
			Name:        "list",
			Aliases:     []string{"ls"},
			Description: "list snapshots",
			Action: func(ctx *cli.Context) error {
				c, err := LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				s, err := c.Snapshotter()
				if err != nil {
					return err
				}
				keys, err := s.List()
				if err != nil {
					return err
				}
				for _, key := range keys {
					fmt.Println(key)
				}
				return nil
			},
		}, {
			Name:        "delete",
			Aliases:     []string{"rm"},
			Description: "delete a snapshot",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Usage:    "the snapshot's object key",
					Required: true,
				},
			},
			Action: func(ctx *cli.Context) error {
				c, err := LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				s, err := c.Snapshotter()
				if err != nil {
					return err
				}
				return s.Delete(ctx.String("key"))
			},
		}},
	}
}
