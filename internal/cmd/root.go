package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
)

var version = "dev"

// settings はフラグ・環境変数・デフォルト値をまとめた設定です。
var settings = config.New()

var rootCmd = &cobra.Command{
	Use:     "blockfall",
	Version: version,
	Short:   "Falling-block puzzle for the terminal",
	Long:    "blockfall - a falling-block puzzle with a local leaderboard and a read-only spectator API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()
		return bindFlags(cmd, settings)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyUser, "", "player name recorded with results (default $USER)")
	flags.String(config.KeyDatabaseDriver, "", "results database driver: sqlite or postgres")
	flags.String(config.KeyDatabaseURL, "", "results database URL or sqlite file; empty disables results")
}

// bindFlags は実行するコマンドのフラグを同名の設定キーに結び付けます。
// 同じ名前のフラグを持つコマンドが複数あるので、実行時に結び付けます。
// 指定されなかったフラグより config.SetDefaults のデフォルト値が優先されます。
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	bind := func(f *pflag.Flag) {
		if bindErr == nil {
			bindErr = v.BindPFlag(f.Name, f)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
	return bindErr
}

// Execute はルートコマンドを実行します。SIGINT/SIGTERM でコンテキストがキャンセルされます。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
