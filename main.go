package main

import (
	"flag"
	_ "net/http/pprof"
	"time"
	"vaultd/asset"
	"vaultd/config"
	"vaultd/convert"
	"vaultd/db"
	"vaultd/ledger"
	"vaultd/log"
	"vaultd/mail"
	"vaultd/oracle"
	"vaultd/rpc"
	"vaultd/tasks"
	"vaultd/transfer"
	"vaultd/vault"
)

var enableMail bool

func init() {
	flag.BoolVar(&enableMail, "mail", false, "If mail alert is enabled")
}

func main() {
	flag.Parse()

	log.Init()
	config.Load(true)
	db.Init()
	mail.Init(enableMail)

	defer mail.AlertIfErr()

	asset.Load(config.GetAssets())

	led := ledger.New()
	db.RestoreLedger(led)

	src := oracle.NewSource(time.Duration(config.GetOracleMaxAge()) * time.Second)

	svc := vault.New(
		led,
		convert.New(src),
		transfer.NewHTTPBridge(config.GetBridgeURL()),
		vault.Sinks{db.NewSink(led), vault.LogSink{}, tasks.StatsSink{}},
		vault.Limits{
			MaxTotalValue:    config.GetMaxTotalValue(),
			MaxWithdrawValue: config.GetMaxWithdrawValue(),
		},
	)

	go oracle.TraceReadings()
	tasks.Run(svc)
	go rpc.Serve(config.GetListen(), svc)

	select {}
}
