package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/songmeta/internal/entity"
)

// TypeInfo describes one registered type.
type TypeInfo struct {
	Name        string   `json:"name"`
	Parent      string   `json:"parent,omitempty"`
	Shape       string   `json:"shape"`
	Concrete    bool     `json:"concrete"`
	Table       string   `json:"table,omitempty"`
	PrimaryKey  []string `json:"primary_key,omitempty"`
	References  []string `json:"references,omitempty"`
	Frozen      []string `json:"frozen,omitempty"`
	Declaration bool     `json:"from_declarations,omitempty"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	var concreteOnly bool
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List registered entity types",
		Long: `List every registered entity type with its shape, table and keys.

Types loaded from the configured declarations directory are included
and marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, cmd, concreteOnly)
		},
	}
	cmd.Flags().BoolVar(&concreteOnly, "concrete", false, "only list types backed by a table")
	return cmd
}

func runTypes(opts *RootOptions, cmd *cobra.Command, concreteOnly bool) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}

	extra := make(map[*entity.Type]bool, len(s.extra))
	for _, t := range s.extra {
		extra[t] = true
	}

	var infos []TypeInfo
	for _, t := range s.cat.Registry.Types() {
		if concreteOnly && !t.Concrete() {
			continue
		}
		infos = append(infos, describeType(t, extra[t]))
	}

	return s.out.Success(infos, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tSHAPE\tTABLE\tPRIMARY KEY\tREFERENCES")
		for _, info := range infos {
			name := info.Name
			if info.Declaration {
				name += " *"
			}
			table := info.Table
			if !info.Concrete {
				table = "(abstract)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				name, info.Shape, table,
				strings.Join(info.PrimaryKey, ","), strings.Join(info.References, ","))
		}
		tw.Flush()
	})
}

func describeType(t *entity.Type, fromDecl bool) TypeInfo {
	info := TypeInfo{
		Name:        t.Name(),
		Parent:      t.Parent().Name(),
		Shape:       t.Shape().String(),
		Concrete:    t.Concrete(),
		Frozen:      t.Frozen(),
		Declaration: fromDecl,
	}
	if t.HasMetadata() {
		info.Table = t.TableName()
		info.PrimaryKey = t.PrimaryKey().Names()
		for _, rel := range t.ForeignKeys().Relations() {
			info.References = append(info.References, rel.Table)
		}
	}
	return info
}
