package tasks

import (
	"log"

	"pereryv/internal/queue"

	"github.com/robfig/cron/v3"
)

// ExpireStaleNotifications снимает уведомления, не подтверждённые за таймаут.
// Задача идемпотентна: движок перепроверяет статус каждой записи перед снятием.
func ExpireStaleNotifications(engine *queue.Engine) {
	n, err := engine.ExpireStaleNotifications()
	if err != nil {
		log.Println("Ошибка проверки просроченных уведомлений:", err)
		return
	}
	if n > 0 {
		log.Printf("Снято просроченных уведомлений: %d\n", n)
	}
}

// CloseOverdueBreaks принудительно завершает перерывы с истёкшей длительностью.
// Закрытие идёт тем же путём, что и ручное завершение.
func CloseOverdueBreaks(engine *queue.Engine) {
	n, err := engine.CloseOverdueBreaks()
	if err != nil {
		log.Println("Ошибка автозакрытия перерывов:", err)
		return
	}
	if n > 0 {
		log.Printf("Автоматически завершено перерывов: %d\n", n)
	}
}

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler(engine *queue.Engine) *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Проверка просроченных уведомлений каждые 15 секунд.
	_, err := c.AddFunc("*/15 * * * * *", func() { ExpireStaleNotifications(engine) })
	if err != nil {
		log.Println("Ошибка запуска cron-задачи ExpireStaleNotifications:", err)
	}

	// Автозакрытие перерывов каждые 15 секунд.
	_, err = c.AddFunc("*/15 * * * * *", func() { CloseOverdueBreaks(engine) })
	if err != nil {
		log.Println("Ошибка запуска cron-задачи CloseOverdueBreaks:", err)
	}

	c.Start()
	log.Println("Cron-планировщик запущен.")
	return c
}
