package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lettervoice/internal/catalog"
	"lettervoice/internal/probe"
	"lettervoice/internal/services"
)

func newDatasetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List recordable datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := ctx.datasets()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(datasets))
			total := 0
			for _, ds := range datasets {
				total += len(ds.Items)
				rows = append(rows, []string{ds.Key, ds.Label, strconv.Itoa(len(ds.Items)), ds.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tableSpec{
				headers: []string{"Key", "Label", "Items", "Description"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				footer:  []string{"", "Total", strconv.Itoa(total), ""},
			}.render())
			return nil
		},
	}
}

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var datasetKey string
	var probeHost bool
	var hideExisting bool

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the items of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := ctx.datasets()
			if err != nil {
				return err
			}
			ds, err := selectDataset(datasets, datasetKey)
			if err != nil {
				return err
			}

			probed := probeHost || hideExisting
			index := probe.NewIndex()
			if probed {
				logger, err := ctx.processLogger()
				if err != nil {
					return err
				}
				index, _ = ctx.assetIndex(cmd.Context(), []catalog.Dataset{ds}, true, logger)
			}
			items, _ := catalog.Filter(ds.Items, index, hideExisting, 0, "")

			headers := []string{"#", "Item", "Recording key", "Download path"}
			if probed {
				headers = append(headers, "On host")
			}
			rows := make([][]string, 0, len(items))
			for i, item := range items {
				row := []string{strconv.Itoa(i + 1), item.ListLabel, item.RecordingKey, item.DownloadPath}
				if probed {
					row = append(row, yesNo(index.Has(item.VoicePath)))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tableSpec{
				headers: headers,
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
			}.render())
			if hideExisting {
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d items hidden because they exist on the host\n",
					len(ds.Items)-len(items), len(ds.Items))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetKey, "dataset", "d", "", "Dataset key (defaults to the first dataset)")
	cmd.Flags().BoolVar(&probeHost, "probe", false, "Check the voice host for existing assets")
	cmd.Flags().BoolVar(&hideExisting, "hide-existing", false, "Hide items that already exist on the host (implies --probe)")
	return cmd
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var datasetKey string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check which voice assets already exist on the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if strings.TrimSpace(cfg.Voice.RootURL) == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "probe", "voice.root_url is not configured", nil)
			}
			datasets, err := ctx.datasets()
			if err != nil {
				return err
			}
			if datasetKey != "" {
				ds, err := selectDataset(datasets, datasetKey)
				if err != nil {
					return err
				}
				datasets = []catalog.Dataset{ds}
			}
			logger, err := ctx.processLogger()
			if err != nil {
				return err
			}

			index, results := ctx.assetIndex(cmd.Context(), datasets, true, logger)
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				status := ""
				if res.Status != 0 {
					status = strconv.Itoa(res.Status)
				}
				rows = append(rows, []string{res.VoicePath, yesNo(res.Exists), string(res.Step), status})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tableSpec{
				headers: []string{"Voice path", "Exists", "Decided by", "HTTP"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				footer:  []string{"Existing", strconv.Itoa(index.Len()), "of", strconv.Itoa(len(results))},
			}.render())
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetKey, "dataset", "d", "", "Limit probing to one dataset")
	return cmd
}

func selectDataset(datasets []catalog.Dataset, key string) (catalog.Dataset, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		if len(datasets) == 0 {
			return catalog.Dataset{}, services.Wrap(services.ErrConfiguration, "cli", "select dataset", "no datasets configured", nil)
		}
		return datasets[0], nil
	}
	ds, ok := catalog.Find(datasets, key)
	if !ok {
		return catalog.Dataset{}, services.Wrap(services.ErrNotFound, "cli", "select dataset", fmt.Sprintf("dataset %q", key), nil)
	}
	return ds, nil
}
