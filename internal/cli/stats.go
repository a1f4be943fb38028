package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ossgeo/geoparse/internal/gazetteer"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge graph statistics",
	Long: `Stats connects to the Neo4j knowledge graph and reports how many
places it holds, how many are countries, and how many are populated
places.

Example:
  geoparse stats
  geoparse stats --graph-uri bolt://graph.example.com:7687`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&graphURI, "graph-uri", "bolt://localhost:7687", "Neo4j connection URI")
	statsCmd.Flags().StringVar(&graphUser, "graph-user", "neo4j", "Neo4j user")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	graph, err := gazetteer.NewGraph(graphURI, graphUser, os.Getenv("NEO4J_PASSWORD"))
	if err != nil {
		return fmt.Errorf("connect gazetteer: %w", err)
	}
	defer func() { _ = graph.Close(context.Background()) }()

	stats, err := graph.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("fetch statistics: %w", err)
	}

	fmt.Println("Knowledge Graph Statistics")
	fmt.Println()
	fmt.Printf("  Places:           %d\n", stats.TotalPlaces)
	fmt.Printf("  Countries:        %d\n", stats.Countries)
	fmt.Printf("  Populated places: %d\n", stats.PopulatedPlaces)

	return nil
}
