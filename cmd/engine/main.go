package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinRadar/pkg/collector"
	"CoinRadar/pkg/config"
	"CoinRadar/pkg/database"
	"CoinRadar/pkg/engine"
	"CoinRadar/pkg/messaging"
	"CoinRadar/pkg/monitor"
	"CoinRadar/pkg/notifier"
	"CoinRadar/pkg/scheduler"
)

func main() {
	log.Println("启动提醒评估引擎...")

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

	// 通知路由：应用内渠道始终可用，Telegram需要用户绑定
	router := notifier.NewRouter(
		db.Event(),
		notifier.NewInAppTransport(),
		notifier.NewTelegramTransport(cfg.Telegram.BotToken, db.ChannelLink()),
	)

	// 事件日志：落库成功后发布到提醒事件流
	var eventLog engine.EventLog = db.Event()
	if natsClient != nil {
		eventLog = messaging.NewPublishingEventLog(eventLog, natsClient)
	}

	// 评估器
	cooldowns := engine.NewCooldownTracker()
	entrant := engine.NewEntrantEvaluator(db.Baseline(), cooldowns, eventLog, router)
	spike := engine.NewSpikeEvaluator(db.Rule(), marketData, cooldowns, eventLog, router)

	// 启动调度器
	sched := scheduler.NewScheduler(entrant, spike, membership, db.Screener(), db.Rule(), cooldowns)
	if err := sched.Start(cfg.Scheduler.EntrantInterval, cfg.Scheduler.SpikeInterval); err != nil {
		log.Fatalf("启动调度器失败: %v\n", err)
	}
	defer sched.Stop()

	// 组件健康检查
	health := monitor.NewMonitor(func(component, status, message string) {
		log.Printf("组件 %s 状态变为 %s: %s", component, status, message)
	})
	health.RegisterComponent("database")
	health.StartChecking("database", db.Ping, time.Minute)
	if natsClient != nil {
		health.RegisterComponent("nats")
		health.StartChecking("nats", func() error {
			if !natsClient.IsConnected() {
				return errors.New("NATS连接断开")
			}
			return nil
		}, time.Minute)
	}
	defer health.Stop()

	log.Println("提醒评估引擎已启动")

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭评估引擎...")
}
