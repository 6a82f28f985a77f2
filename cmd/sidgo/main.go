// Command sidgo inspects, splits and merges SID/SuperSID amplitude log files.
//
// With one file argument it prints the header and dataset shape; a SuperSID
// file can additionally be split into one SID file per station. With two
// file arguments the files are merged and written next to the first one.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sidwatch/gosid/pkg/sid"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "sidgo",
		Usage:     "inspect, split and merge SID/SuperSID log files",
		ArgsUsage: "FILE [FILE2]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "read-timestamps",
				Usage: "always parse per-row timestamps instead of generating them",
			},
			&cli.BoolFlag{
				Name:  "gzip",
				Usage: "gzip written files",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	switch c.NArg() {
	case 1:
		return inspect(c, c.Args().Get(0))
	case 2:
		return merge(c, c.Args().Get(0), c.Args().Get(1))
	default:
		cli.ShowAppHelp(c)
		return cli.Exit("", 1)
	}
}

// load reads a log file and maps failures to exit codes: 2 for malformed
// headers, 1 for anything else.
func load(path string, forceTimestamps bool) (*sid.File, error) {
	f, err := sid.ReadFile(path, sid.ReadOptions{ForceTimestamps: forceTimestamps})
	if err != nil {
		code := 1
		if errors.Is(err, sid.ErrNoStationIdentity) || errors.Is(err, sid.ErrStationFrequencyMismatch) {
			code = 2
		}
		return nil, cli.Exit(err.Error(), code)
	}
	return f, nil
}

func inspect(c *cli.Context, path string) error {
	f, err := load(path, true)
	if err != nil {
		return err
	}

	fmt.Printf("%s file format: -- Header information --\n", f.Variant)
	keys := make([]string, 0, len(f.Params))
	for k := range f.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("     %s = %s\n", k, f.Params[k])
	}
	if f.TimeFormat == sid.Extended {
		fmt.Println("Time stamps are extended.")
	}
	calls := make([]string, len(f.Stations))
	for i, st := range f.Stations {
		calls[i] = st.CallSign
	}
	fmt.Println("Monitored stations:", strings.Join(calls, ", "))
	fmt.Println("Start time:", f.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("Dataset shape: (%d, %d)\n", len(f.Data), f.NumSamples())

	if f.Variant != sid.MultiStation {
		return nil
	}
	fmt.Printf("Proceed to split this SuperSID file in %d SID files? [y/N] ", len(f.Stations))
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.TrimSpace(answer) != "y" {
		return nil
	}
	return split(c, f)
}

// split writes one SID file per station of a SuperSID file, raw data as-is.
func split(c *cli.Context, f *sid.File) error {
	site, _ := f.Params.Get("site")
	date := f.Params["utc_starttime"]
	if len(date) >= 10 {
		date = date[:10]
	}
	for i, st := range f.Stations {
		name := filepath.Join(filepath.Dir(f.Path), fmt.Sprintf("%s_%s_%s.split.csv", site, st.CallSign, date))
		opts := sid.WriteOptions{LogType: f.Params["logtype"], SkipFilter: true}
		if err := f.SaveSID(name, sid.ByIndex(i), opts); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if c.Bool("gzip") {
			gz, err := sid.Compress(name)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			name = gz
		}
		fmt.Println(name, "created.")
	}
	return nil
}

func merge(c *cli.Context, path1, path2 string) error {
	f1, err := load(path1, c.Bool("read-timestamps"))
	if err != nil {
		return err
	}
	f2, err := load(path2, c.Bool("read-timestamps"))
	if err != nil {
		return err
	}

	out, err := sid.Merge(f1, f2)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.Bool("gzip") {
		if out, err = sid.Compress(out); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	fmt.Println(out, "created.")
	return nil
}
