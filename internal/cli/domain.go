package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	proxylist "github.com/goliatone/go-proxylist"
	"github.com/goliatone/go-proxylist/pkg/state"
	"github.com/goliatone/go-proxylist/property"
)

// target selects one proxy-valued property of one proxy type.
type target struct {
	group    string
	proxy    string
	property string
}

func (t *target) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&t.group, "group", "g", "", "Proxy group (required)")
	cmd.Flags().StringVarP(&t.proxy, "proxy", "p", "", "Proxy name (required)")
	cmd.Flags().StringVar(&t.property, "property", "", "Proxy-valued property holding the domain (required)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("proxy")
	_ = cmd.MarkFlagRequired("property")
}

// resolve instantiates the target proxy and returns it with its domain.
func (a *app) resolve(t target) (*property.Object, *proxylist.Domain, error) {
	if a.cfg.Definitions == "" {
		return nil, nil, fmt.Errorf("no definitions configured (use --definitions or PLISTCTL_DEFINITIONS)")
	}
	obj, err := a.manager.Create(t.group, t.proxy)
	if err != nil {
		return nil, nil, err
	}
	domain, ok := obj.Domain(t.property)
	if !ok {
		return nil, nil, fmt.Errorf("%s/%s: property %q has no proxy list domain", t.group, t.proxy, t.property)
	}
	return obj, domain, nil
}

func typesCmd(a *app) *cobra.Command {
	var t target

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the candidate types and instantiated proxies of a domain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, domain, err := a.resolve(t)
			if err != nil {
				return err
			}
			printTypes(cmd.OutOrStdout(), domain)
			return nil
		},
	}
	t.register(cmd)
	return cmd
}

func printTypes(w io.Writer, domain *proxylist.Domain) {
	fmt.Fprintf(w, "Domain: %s\n\n", domain.Name())
	for i, desc := range domain.Types() {
		fmt.Fprintf(w, "%d. %s/%s\n", i, desc.Group, desc.Name)
	}
	if domain.NumberOfProxies() == 0 {
		fmt.Fprintln(w, "\n(no proxies instantiated)")
		return
	}
	fmt.Fprintln(w)
	for _, p := range domain.Proxies() {
		fmt.Fprintf(w, "- #%d %s/%s\n", p.GlobalID(), p.Group(), p.Name())
	}
}

func stateCmd(a *app) *cobra.Command {
	var t target
	var check bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the saved state of a domain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, domain, err := a.resolve(t)
			if err != nil {
				return err
			}
			if check {
				if err := a.checkRoundTrip(cmd, domain); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if err := domain.State().Encode(out, "  "); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	t.register(cmd)
	cmd.Flags().BoolVar(&check, "check", false, "Save and restore the state through a snapshot store before printing")
	return cmd
}

// checkRoundTrip saves domain through the snapshot resolver and restores it
// into a fresh domain, failing when the restored proxies differ.
func (a *app) checkRoundTrip(cmd *cobra.Command, domain *proxylist.Domain) error {
	resolver := state.Resolver{Store: state.NewMemoryStore()}
	meta, err := resolver.Save(cmd.Context(), a.cfg.Session, domain, state.Meta{})
	if err != nil {
		return err
	}
	restored := proxylist.New(proxylist.WithName(domain.Name()), proxylist.WithProperty(domain.Property()))
	defer restored.Close()
	_, found, err := resolver.Restore(cmd.Context(), a.cfg.Session, restored, a.manager)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("state check: no snapshot stored for %q", domain.StateKey())
	}
	want, got := domain.Proxies(), restored.Proxies()
	if len(want) != len(got) {
		return fmt.Errorf("state check: saved %d proxies, restored %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("state check: proxy %d: saved #%d, restored #%d", i, want[i].GlobalID(), got[i].GlobalID())
		}
	}
	a.logger.Info("state.checked", "session", a.cfg.Session, "snapshot_id", meta.SnapshotID, "proxies", len(got))
	return nil
}

func inspectCmd(a *app) *cobra.Command {
	var t target
	var sets []string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Set owner properties and print every candidate's property values",
		Long: "Instantiates the proxy, applies --set assignments to it and prints the\n" +
			"values of every candidate, showing the effect of Link hints.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			obj, domain, err := a.resolve(t)
			if err != nil {
				return err
			}
			for _, assignment := range sets {
				name, values, err := parseAssignment(assignment)
				if err != nil {
					return err
				}
				if err := obj.Set(name, values...); err != nil {
					return err
				}
			}
			printValues(cmd.OutOrStdout(), obj, domain)
			return nil
		},
	}
	t.register(cmd)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Owner assignment name=v1,v2 (repeatable)")
	return cmd
}

func parseAssignment(raw string) (string, []any, error) {
	name, rest, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid assignment %q: want name=value[,value...]", raw)
	}
	var values []any
	for _, part := range strings.Split(rest, ",") {
		values = append(values, strings.TrimSpace(part))
	}
	return name, values, nil
}

func printValues(w io.Writer, owner *property.Object, domain *proxylist.Domain) {
	fmt.Fprintf(w, "%s/%s #%d\n", owner.Group(), owner.Name(), owner.GlobalID())
	printObjectValues(w, owner, "  ")
	for _, p := range domain.Proxies() {
		fmt.Fprintf(w, "- %s/%s #%d\n", p.Group(), p.Name(), p.GlobalID())
		if obj, ok := p.(*property.Object); ok {
			printObjectValues(w, obj, "    ")
		}
	}
}

func printObjectValues(w io.Writer, obj *property.Object, indent string) {
	for _, name := range obj.PropertyNames() {
		v, _ := obj.Value(name)
		if v.Type() == property.TypeProxy {
			ids := make([]string, 0)
			for _, p := range v.Proxies(false) {
				ids = append(ids, fmt.Sprintf("#%d", p.GlobalID()))
			}
			fmt.Fprintf(w, "%s%s = [%s]\n", indent, name, strings.Join(ids, " "))
			continue
		}
		fmt.Fprintf(w, "%s%s = %v\n", indent, name, v.Values(false))
	}
}
