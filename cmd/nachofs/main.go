package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/nachofs/pkg/filesys"
	"github.com/weberc2/nachofs/pkg/kernel"
	"github.com/weberc2/nachofs/pkg/pgdisk"
	"github.com/weberc2/nachofs/pkg/server"
	. "github.com/weberc2/nachofs/pkg/types"
)

func main() {
	app := cli.App{
		Name:        appName,
		Description: "a hierarchical file system on a simulated disk",
		Commands: []*cli.Command{{
			Name:        "format",
			Description: "initialize the disk with an empty root directory",
			Action: func(ctx *cli.Context) error {
				c, err := LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				d, closeDisk, err := c.OpenDisk(true)
				if err != nil {
					return err
				}
				if _, err := filesys.Format(d); err != nil {
					closeDisk()
					return err
				}
				return closeDisk()
			},
		}, {
			Name:        "cp",
			Usage:       "cp <unix-file> <path>",
			Description: "copy a host file onto the disk",
			Action: withFS(2, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				return copyIn(fs, ctx.Args().Get(0), ctx.Args().Get(1))
			}),
		}, {
			Name:        "cat",
			Aliases:     []string{"p"},
			Usage:       "cat <path>",
			Description: "print a file's contents",
			Action: withFS(1, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				return copyOut(fs, ctx.Args().Get(0), os.Stdout)
			}),
		}, {
			Name:        "rm",
			Aliases:     []string{"r"},
			Usage:       "rm <path>",
			Description: "remove a file",
			Action: withFS(1, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				return fs.Remove(ctx.Args().Get(0))
			}),
		}, {
			Name:        "rmr",
			Aliases:     []string{"rr"},
			Usage:       "rmr <path>",
			Description: "remove a directory and everything beneath it",
			Action: withFS(1, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				return fs.RecurRemoveDirectory(ctx.Args().Get(0))
			}),
		}, {
			Name:        "ls",
			Aliases:     []string{"l"},
			Usage:       "ls [path]",
			Description: "list a directory",
			Action: withFS(0, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				return fs.ListDirectory(os.Stdout, pathArg(ctx))
			}),
		}, {
			Name:        "lsr",
			Aliases:     []string{"lr"},
			Usage:       "lsr [path]",
			Description: "list a directory tree",
			Action: withFS(0, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				return fs.RecurListDirectory(os.Stdout, pathArg(ctx))
			}),
		}, {
			Name:        "mkdir",
			Usage:       "mkdir <path>",
			Description: "create a directory; its parent must exist",
			Action: withFS(1, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				return fs.CreateDirectory(ctx.Args().Get(0))
			}),
		}, {
			Name:        "print",
			Aliases:     []string{"D"},
			Description: "dump the bitmap, the root directory and its files",
			Action: withFS(0, func(fs *filesys.FileSystem, ctx *cli.Context) error {
				if err := fs.Print(os.Stdout); err != nil {
					return err
				}
				stats := fs.Disk().Stats()
				fmt.Printf("Disk I/O: reads %d, writes %d\n", stats.Reads, stats.Writes)
				return nil
			}),
		}, {
			Name:        "serve",
			Description: "serve the file system's system calls over HTTP",
			Action: func(ctx *cli.Context) error {
				c, err := LoadConfig()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				d, closeDisk, err := c.OpenDisk(c.Backend == BackendMemory)
				if err != nil {
					return err
				}
				defer closeDisk()

				mount := filesys.Mount
				if c.Backend == BackendMemory {
					mount = filesys.Format
				}
				fs, err := mount(d)
				if err != nil {
					return err
				}
				service := server.FileService{Kernel: kernel.New(fs), Disk: d}

				log.Printf("listening at %s", c.Addr)
				return http.ListenAndServe(c.Addr, pz.Register(
					pz.JSONLog(os.Stderr),
					service.Routes()...,
				))
			},
		}, snapshotCommand(), {
			Name:        "pg",
			Description: "commands for the postgres sector store",
			Subcommands: []*cli.Command{{
				Name:        "table",
				Description: "commands for interacting with the backing pg table",
				Subcommands: []*cli.Command{{
					Name:        "ensure",
					Aliases:     []string{"make", "create"},
					Description: "create the table if it doesn't already exist",
					Action: withStore(func(store *pgdisk.PGSectorStore, ctx *cli.Context) error {
						return store.EnsureTable()
					}),
				}, {
					Name:        "drop",
					Aliases:     []string{"delete", "destroy"},
					Description: "drop the postgres table",
					Action: withStore(func(store *pgdisk.PGSectorStore, ctx *cli.Context) error {
						return store.DropTable()
					}),
				}, {
					Name:        "reset",
					Description: "delete and recreate the postgres table",
					Action: withStore(func(store *pgdisk.PGSectorStore, ctx *cli.Context) error {
						return store.ResetTable()
					}),
				}, {
					Name: "clear",
					Description: "clear the rows from the table without " +
						"dropping it",
					Action: withStore(func(store *pgdisk.PGSectorStore, ctx *cli.Context) error {
						return store.ClearTable()
					}),
				}},
			}},
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withFS loads the config, mounts the file system and runs `f`, requiring
// at least `args` positional arguments.
func withFS(
	args int,
	f func(*filesys.FileSystem, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if ctx.NArg() < args {
			return fmt.Errorf(
				"%s: wanted `%d` arguments; found `%d`",
				ctx.Command.Name,
				args,
				ctx.NArg(),
			)
		}
		c, err := LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if c.Backend == BackendMemory {
			return fmt.Errorf(
				"%s: the `memory` backend only persists while serving",
				ctx.Command.Name,
			)
		}
		d, closeDisk, err := c.OpenDisk(false)
		if err != nil {
			return err
		}
		fs, err := filesys.Mount(d)
		if err != nil {
			closeDisk()
			return err
		}
		defer fs.Unmount()
		if err := f(fs, ctx); err != nil {
			closeDisk()
			return err
		}
		return closeDisk()
	}
}

func withStore(
	f func(*pgdisk.PGSectorStore, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		store, err := pgdisk.OpenEnv(c.DiskName)
		if err != nil {
			return fmt.Errorf("opening PGSectorStore: %w", err)
		}
		defer store.Close()
		return f(store, ctx)
	}
}

func pathArg(ctx *cli.Context) string {
	if ctx.NArg() > 0 {
		return ctx.Args().Get(0)
	}
	return "/"
}

// copyIn creates `path` sized to the host file and writes the host file's
// contents into it.
func copyIn(fs *filesys.FileSystem, from, path string) error {
	data, err := ioutil.ReadFile(from)
	if err != nil {
		return fmt.Errorf("copying `%s` to `%s`: %w", from, path, err)
	}
	if err := fs.Create(path, Byte(len(data))); err != nil {
		return err
	}
	file, err := fs.Open(path)
	if err != nil {
		return err
	}
	n, err := file.Write(data)
	if err != nil {
		return fmt.Errorf("copying `%s` to `%s`: %w", from, path, err)
	}
	if n != len(data) {
		return fmt.Errorf(
			"copying `%s` to `%s`: wrote `%d` of `%d` bytes",
			from,
			path,
			n,
			len(data),
		)
	}
	return nil
}

func copyOut(fs *filesys.FileSystem, path string, w io.Writer) error {
	file, err := fs.Open(path)
	if err != nil {
		return err
	}
	data := make([]byte, file.Length())
	n, err := file.Read(data)
	if err != nil {
		return fmt.Errorf("printing `%s`: %w", path, err)
	}
	if _, err := w.Write(data[:n]); err != nil {
		return fmt.Errorf("printing `%s`: %w", path, err)
	}
	return nil
}
