package main

import (
	"log"
	"os"
	"time"

	"CoinRadar/pkg/api"
	"CoinRadar/pkg/collector"
	"CoinRadar/pkg/config"
	"CoinRadar/pkg/database"
	"CoinRadar/pkg/engine"
	"CoinRadar/pkg/messaging"
	"CoinRadar/pkg/notifier"
	"CoinRadar/pkg/scheduler"
)

func main() {
	log.Println("启动API服务器...")

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	// 连接数据库
	db, err := database.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v\n", err)
	}
	defer db.Close()

	// 连接NATS，失败时事件只落库不发流
	var natsClient *messaging.NATSClient
	if cfg.NATS.URL != "" {
		natsClient, err = messaging.NewNATSClient(cfg.NATS.URL)
		if err != nil {
			log.Printf("警告: 连接NATS失败: %v", err)
			natsClient = nil
		} else {
			defer natsClient.Close()
		}
	}

	// 行情数据源
	marketData := collector.NewBinanceAdapter(
		cfg.DataSources.Binance.BaseURL,
		time.Duration(cfg.DataSources.Binance.Timeout),
	)
	membership := collector.NewCoinGeckoAdapter(
		cfg.DataSources.CoinGecko.BaseURL,
		cfg.DataSources.CoinGecko.APIKey,
		time.Duration(cfg.DataSources.CoinGecko.Timeout),
	)

	// 通知路由
	router := notifier.NewRouter(
		db.Event(),
		notifier.NewInAppTransport(),
		notifier.NewTelegramTransport(cfg.Telegram.BotToken, db.ChannelLink()),
	)

	// 事件日志
	var eventLog engine.EventLog = db.Event()
	if natsClient != nil {
		eventLog = messaging.NewPublishingEventLog(eventLog, natsClient)
	}

	// 评估器与调度器
	// 周期任务由engine进程负责，这里不Start，只用于手动触发扫描
	cooldowns := engine.NewCooldownTracker()
	entrant := engine.NewEntrantEvaluator(db.Baseline(), cooldowns, eventLog, router)
	spike := engine.NewSpikeEvaluator(db.Rule(), marketData, cooldowns, eventLog, router)
	sched := scheduler.NewScheduler(entrant, spike, membership, db.Screener(), db.Rule(), cooldowns)

	// 创建API服务器
	server := api.NewServer(cfg.API.Port)

	// 设置路由
	handlers := api.NewHandlers(db.Rule(), eventLog, db.Baseline(), db.Screener(), db.ChannelLink(), router, sched)
	server.SetupRoutes(handlers)

	// 启动服务器（阻塞直到收到退出信号）
	server.Start()
}
