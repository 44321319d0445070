package app

// Command はコマンドライン引数で指定されるサブコマンドを表す
type Command string

const (
	// CommandServe はHTTP APIサーバーを起動する
	CommandServe Command = "serve"
	// CommandWorker はバックグラウンドワーカー(判例リンク・履歴クリーンアップ)を起動する
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行する
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はサーバーのヘルスチェックを実行する
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する
// 引数が空または不明なコマンドの場合はserveをデフォルトとする
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case string(CommandWorker):
		return CommandWorker
	case string(CommandMigrate):
		return CommandMigrate
	case string(CommandHealthcheck):
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
