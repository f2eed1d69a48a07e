package main

import (
	fincal "fincalendar"
	"fincalendar/app"
	"fincalendar/bot"
	"fincalendar/config"
	"fincalendar/internal/db"
	"fincalendar/scrape"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {

	conf, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	level, err := conf.LogLevel()
	if err != nil {
		panic(err)
	}
	/*
		memo.
		zerolog.SetGlobalLevel()는 이후에 생성되는 모든 zerolog.Logger의 로그 레벨을 설정함.
		gorm logger 는 mysql.go 에서 별도로 설정하므로 영향을 받지 않음.
	*/
	zerolog.SetGlobalLevel(level)

	ch := make(chan string)

	botConf, err := conf.BotConfig()
	if err != nil {
		panic(err)
	}

	teleBot, err := bot.NewTeleBot(botConf)
	if err != nil {
		panic(err)
	}

	scraper, err := scrape.NewScraper(conf.ScrapeOptions()...)
	if err != nil {
		panic(err)
	}

	stg, err := db.NewStorage(conf.MysqlConfig(), conf.RedisConfig())
	if err != nil {
		panic(err)
	}
	defer stg.Close()

	countries, err := conf.Countries()
	if err != nil {
		panic(err)
	}

	cal := fincal.NewCalendar(fincal.CalendarConfig{
		Storage:   stg,
		Poller:    scraper,
		Channel:   ch,
		Countries: countries,
		Horizon:   conf.Calendar.Horizon,
		Retention: conf.Calendar.Retention,
	})
	cal.Run()

	go func() {
		if err := app.Run(conf, stg, cal); err != nil {
			log.Fatal().Err(err).Msg("app stopped")
		}
	}()

	teleBot.Run(ch, conf.App.Port, conf.App.Passkey)
}
