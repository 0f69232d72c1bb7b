package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// Providers prints every known provider with its configuration and
// administrative state.
func Providers(app *App) error {
	registry := app.Registry()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tENABLED\tCONFIGURED\tMISSING")
	for _, adapter := range registry.All() {
		missing := ""
		if !adapter.IsConfigured() {
			for _, field := range adapter.RequiredConfig() {
				if !field.Required {
					continue
				}
				if missing != "" {
					missing += ", "
				}
				missing += field.Key
			}
		}
		fmt.Fprintf(w, "%s\t%v\t%v\t%s\n",
			adapter.Name(), registry.Enabled(adapter.Name()), adapter.IsConfigured(), missing)
	}
	return w.Flush()
}

// Models prints the models available from configured providers. With a
// provider flag set, only that provider is queried.
func Models(ctx context.Context, app *App, provider string) error {
	registry := app.Registry()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "PROVIDER\tMODEL\tNAME")

	if provider != "" {
		models, err := registry.Models(ctx, provider)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\t%s\n", provider, m.ID, m.Name)
		}
		return nil
	}

	discovered := registry.DiscoverModels(ctx)
	for _, name := range registry.Names() {
		for _, m := range discovered[name] {
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, m.ID, m.Name)
		}
	}
	return nil
}

// Test probes provider connectivity. With a provider flag set, only that
// provider is probed.
func Test(ctx context.Context, app *App, provider string) error {
	registry := app.Registry()

	probe := func(name string) error {
		adapter, err := registry.Get(name)
		if err != nil {
			return err
		}
		status := adapter.TestConnection(ctx)
		mark := "ok"
		if !status.Success {
			mark = "FAIL"
		}
		fmt.Printf("%-10s %-4s %s\n", name, mark, status.Message)
		return nil
	}

	if provider != "" {
		return probe(provider)
	}
	for _, name := range registry.Names() {
		if err := probe(name); err != nil {
			return err
		}
	}
	return nil
}
