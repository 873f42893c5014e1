package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/takatori/sparql"
	"github.com/takatori/sparql/internal"
)

var (
	flagEndpoint       string
	flagUpdateEndpoint string
	flagFormat         string
	flagConvert        bool
	flagVersion        string
	flagDefaultGraphs  []string
	flagNamedGraphs    []string
	flagUsingGraphs    []string
	flagUsingNamed     []string
)

func main() {

	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger := internal.NewLogger(config)
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "sparql",
		Short:         "Run SPARQL query and update operations against a remote endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", config.Endpoint, "SPARQL query endpoint URL")
	root.PersistentFlags().StringVar(&flagUpdateEndpoint, "update-endpoint", config.UpdateEndpoint, "SPARQL update endpoint URL (defaults to the query endpoint)")
	root.PersistentFlags().StringVar(&flagVersion, "protocol-version", "", "value for the protocol 'version' parameter")

	queryCmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Execute a query (reads from stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, config)
		},
	}
	queryCmd.Flags().StringVar(&flagFormat, "format", "", "response format alias or MIME type")
	queryCmd.Flags().BoolVar(&flagConvert, "convert", false, "convert the response instead of printing raw bytes")
	queryCmd.Flags().StringSliceVar(&flagDefaultGraphs, "default-graph-uri", nil, "default graph URI (repeatable)")
	queryCmd.Flags().StringSliceVar(&flagNamedGraphs, "named-graph-uri", nil, "named graph URI (repeatable)")

	updateCmd := &cobra.Command{
		Use:   "update [request]",
		Short: "Execute an update request (reads from stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args, config)
		},
	}
	updateCmd.Flags().StringSliceVar(&flagUsingGraphs, "using-graph-uri", nil, "using graph URI (repeatable)")
	updateCmd.Flags().StringSliceVar(&flagUsingNamed, "using-named-graph-uri", nil, "using named graph URI (repeatable)")

	root.AddCommand(queryCmd, updateCmd)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newClient(config *internal.Config) *sparql.Client {
	opts := []sparql.Option{sparql.WithTimeout(config.Timeout)}
	if flagUpdateEndpoint != "" {
		opts = append(opts, sparql.WithUpdateEndpoint(flagUpdateEndpoint))
	}
	return sparql.New(flagEndpoint, opts...)
}

func runQuery(cmd *cobra.Command, args []string, config *internal.Config) error {
	query, err := readOperationText(cmd, args)
	if err != nil {
		return err
	}

	client := newClient(config)
	defer client.Close()

	queryOpts := []sparql.QueryOption{
		sparql.WithDefaultGraphURI(flagDefaultGraphs...),
		sparql.WithNamedGraphURI(flagNamedGraphs...),
	}
	if flagFormat != "" {
		queryOpts = append(queryOpts, sparql.WithResponseFormat(flagFormat))
	}
	if flagVersion != "" {
		queryOpts = append(queryOpts, sparql.WithVersion(flagVersion))
	}

	if !flagConvert {
		resp, err := client.Query(cmd.Context(), query, queryOpts...)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(resp.Body)
		return err
	}

	result, err := client.QueryTyped(cmd.Context(), query, queryOpts...)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

func runUpdate(cmd *cobra.Command, args []string, config *internal.Config) error {
	update, err := readOperationText(cmd, args)
	if err != nil {
		return err
	}

	client := newClient(config)
	defer client.Close()

	updateOpts := []sparql.UpdateOption{
		sparql.WithUsingGraphURI(flagUsingGraphs...),
		sparql.WithUsingNamedGraphURI(flagUsingNamed...),
	}
	if flagVersion != "" {
		updateOpts = append(updateOpts, sparql.WithUpdateVersion(flagVersion))
	}

	resp, err := client.Update(cmd.Context(), update, updateOpts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", resp.StatusCode)
	return nil
}

func readOperationText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	text, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(text), nil
}

func printResult(w io.Writer, result sparql.Result) error {
	switch result.Type {
	case sparql.SelectQuery:
		fmt.Fprintln(w, strings.Join(result.Bindings.Vars, "\t"))
		for _, binding := range result.Bindings.Bindings {
			row := make([]string, len(result.Bindings.Vars))
			for i, name := range result.Bindings.Vars {
				row[i] = fmt.Sprintf("%v", binding[name])
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
	case sparql.AskQuery:
		fmt.Fprintf(w, "%t\n", result.Bool)
	case sparql.ConstructQuery, sparql.DescribeQuery:
		for _, t := range result.Graph {
			fmt.Fprintf(w, "%s %s %s .\n", t.S, t.P.String(), t.O)
		}
	}
	return nil
}
