// Copyright 2017-25 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package info implements the info command, which prints the header of a
// PBF file and, optionally, the number of entities it holds.
package info

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"m4o.io/osmblock"
	"m4o.io/osmblock/cmd/osmblock/cli"
	"m4o.io/osmblock/model"
)

var out io.Writer = os.Stdout

type extendedHeader struct {
	model.Header

	NodeCount     int64 `json:"node_count,omitempty"`
	WayCount      int64 `json:"way_count,omitempty"`
	RelationCount int64 `json:"relation_count,omitempty"`

	// DataBoundingBox is the extent of the decoded nodes, nil when there
	// are none.
	DataBoundingBox *model.BoundingBox `json:"data_bounding_box,omitempty"`
}

var input *os.File

func init() {
	cli.RootCmd.AddCommand(infoCmd)

	flags := infoCmd.Flags()
	flags.VarP(cli.NewReaderValue(os.Stdin, &input, "file"), "input", "i", "PBF file to read (default stdin)")
	flags.BoolP("json", "j", false, "format information in JSON")
	flags.BoolP("yaml", "y", false, "format information in YAML")
	flags.Uint16P("cpu", "c", uint16(runtime.GOMAXPROCS(-1)), "number of CPUs to use for scanning")
	flags.BoolP("extended", "e", false, "provide extended information (scans entire file)")
	flags.StringSlice("compression", nil, "additional blob compressions to decode (lzma, lz4, zstd)")

	infoCmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

var infoCmd = &cobra.Command{
	Use:   "info [<OSM file>]",
	Short: "Print information about an OSM file",
	Long:  "Print information about an OSM file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := input
		if len(args) == 1 {
			var err error
			if f, err = os.Open(args[0]); err != nil {
				return err
			}
		}

		flags := cmd.Flags()

		ncpu, err := flags.GetUint16("cpu")
		if err != nil {
			return err
		}

		extended, err := flags.GetBool("extended")
		if err != nil {
			return err
		}

		names, err := flags.GetStringSlice("compression")
		if err != nil {
			return err
		}

		compressions, err := parseCompressions(names)
		if err != nil {
			return err
		}

		var in io.ReadCloser = f
		if extended {
			if in, err = cli.WrapInputFile(f); err != nil {
				return err
			}
		}

		info, err := runInfo(cmd.Context(), in, ncpu, extended, compressions...)

		if cerr := in.Close(); err == nil {
			err = cerr
		}

		if err != nil {
			return err
		}

		jsonfmt, err := flags.GetBool("json")
		if err != nil {
			return err
		}

		yamlfmt, err := flags.GetBool("yaml")
		if err != nil {
			return err
		}

		switch {
		case jsonfmt:
			return renderJSON(info, extended)
		case yamlfmt:
			return renderYAML(info, extended)
		default:
			renderTxt(info, extended)

			return nil
		}
	},
}

func parseCompressions(names []string) ([]model.BlobCompression, error) {
	compressions := make([]model.BlobCompression, 0, len(names))

	for _, name := range names {
		c, err := model.ParseBlobCompression(name)
		if err != nil {
			return nil, err
		}

		compressions = append(compressions, c)
	}

	return compressions, nil
}

func runInfo(ctx context.Context, in io.Reader, ncpu uint16, extended bool, compressions ...model.BlobCompression) (*extendedHeader, error) {
	d, err := osmblock.NewDecoder(ctx, in, osmblock.WithNCpus(ncpu), osmblock.WithCompressions(compressions...))
	if err != nil {
		return nil, err
	}

	defer d.Close()

	info := &extendedHeader{Header: d.Header}

	if !extended {
		return info, nil
	}

	for {
		entities, err := d.Decode()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		extent, ok := countEntities(info, entities)
		if !ok {
			continue
		}

		if info.DataBoundingBox == nil {
			info.DataBoundingBox = model.InitialBoundingBox()
		}

		info.DataBoundingBox.ExpandWithBoundingBox(extent)
	}

	return info, nil
}

// countEntities adds the entities of one block to the counts of info and
// returns the extent of its nodes.
func countEntities(info *extendedHeader, entities []model.Entity) (extent *model.BoundingBox, ok bool) {
	extent = model.InitialBoundingBox()

	for _, e := range entities {
		switch e := e.(type) {
		case *model.Node:
			info.NodeCount++
			extent.ExpandWithLatLng(e.Lat, e.Lon)
			ok = true
		case *model.Way:
			info.WayCount++
		case *model.Relation:
			info.RelationCount++
		}
	}

	return extent, ok
}

// view returns the smallest struct needed.
func view(info *extendedHeader, extended bool) any {
	if extended {
		return info
	}

	return info.Header
}

func renderJSON(info *extendedHeader, extended bool) error {
	b, err := json.Marshal(view(info, extended))
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(out, string(b))

	return err
}

func renderYAML(info *extendedHeader, extended bool) error {
	b, err := yaml.Marshal(view(info, extended))
	if err != nil {
		return err
	}

	_, err = out.Write(b)

	return err
}

func renderTxt(info *extendedHeader, extended bool) {
	bbox := "none"
	if info.BoundingBox != nil {
		bbox = info.BoundingBox.String()
	}

	ts := ""
	if !info.OsmosisReplicationTimestamp.IsZero() {
		ts = info.OsmosisReplicationTimestamp.UTC().Format(time.RFC3339)
	}

	fmt.Fprintf(out, "BoundingBox: %s\n", bbox)
	fmt.Fprintf(out, "RequiredFeatures: %s\n", strings.Join(info.RequiredFeatures, ", "))
	fmt.Fprintf(out, "OptionalFeatures: %s\n", strings.Join(info.OptionalFeatures, ", "))
	fmt.Fprintf(out, "WritingProgram: %s\n", info.WritingProgram)
	fmt.Fprintf(out, "Source: %s\n", info.Source)
	fmt.Fprintf(out, "OsmosisReplicationTimestamp: %s\n", ts)
	fmt.Fprintf(out, "OsmosisReplicationSequenceNumber: %d\n", info.OsmosisReplicationSequenceNumber)
	fmt.Fprintf(out, "OsmosisReplicationBaseURL: %s\n", info.OsmosisReplicationBaseURL)

	if extended {
		fmt.Fprintf(out, "NodeCount: %s\n", humanize.Comma(info.NodeCount))
		fmt.Fprintf(out, "WayCount: %s\n", humanize.Comma(info.WayCount))
		fmt.Fprintf(out, "RelationCount: %s\n", humanize.Comma(info.RelationCount))

		extent := "none"
		if info.DataBoundingBox != nil {
			extent = info.DataBoundingBox.String()
		}

		fmt.Fprintf(out, "DataBoundingBox: %s\n", extent)
	}
}
