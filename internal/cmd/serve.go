package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	gameservice "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	flags := serveCmd.Flags()
	flags.String(config.KeyListen, "", "address to listen on (default :$PORT or :8080)")
	flags.StringSlice(config.KeyAllowedOrigins, nil, "origins allowed to use the API")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the results and spectator API without a local game.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := config.Load(settings)
		if err != nil {
			return err
		}

		db, repo, err := openResults(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		sm := gameservice.NewSessionManager(repo)
		srv := newServer(listenAddr(cfg.Listen), cfg, sm, db, repo)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error { return sm.Run(ctx) })
		g.Go(func() error {
			defer sm.Shutdown()
			return serveHTTP(ctx, srv)
		})
		return g.Wait()
	},
}

// listenAddr は待ち受けアドレスを決めます。未指定なら PORT 環境変数、それもなければ 8080 番です。
func listenAddr(listen string) string {
	if listen != "" {
		return listen
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
