package schedule

import (
	"sync"

	"github.com/jasonlvhit/gocron" // Job Scheduling Package

	"github.com/goreforced/YCTNewsBot-TG/internal/logging"
)

// Job — периодическая задача (автопостинг), которую можно
// останавливать и запускать заново без гонок.
// Сигнал остановки срабатывает в пределах одного тика планировщика
type Job struct {
	task func()

	mu       sync.Mutex
	interval uint64 // минуты
	running  bool
	stop     chan bool
}

// NewJob возвращает задачу, выполняющую task раз в intervalMinutes минут
func NewJob(intervalMinutes uint64, task func()) *Job {
	if intervalMinutes == 0 {
		intervalMinutes = 1
	}
	return &Job{
		task:     task,
		interval: intervalMinutes,
	}
}

// Start запускает задачу. Повторный запуск — no-op
func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	scheduler := gocron.NewScheduler()
	scheduler.Every(j.interval).Minutes().Do(j.run)
	j.stop = scheduler.Start()
	j.running = true
}

// Stop останавливает задачу. Остановка уже остановленной — no-op
func (j *Job) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	j.stop <- true
	j.running = false
}

// Running сообщает, запущена ли задача
func (j *Job) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// Interval возвращает текущий интервал в минутах
func (j *Job) Interval() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.interval
}

// SetInterval меняет интервал. Если задача запущена,
// она перезапускается с новым интервалом
func (j *Job) SetInterval(intervalMinutes uint64) {
	if intervalMinutes == 0 {
		return
	}

	j.mu.Lock()
	wasRunning := j.running
	j.mu.Unlock()

	if wasRunning {
		j.Stop()
	}

	j.mu.Lock()
	j.interval = intervalMinutes
	j.mu.Unlock()

	if wasRunning {
		j.Start()
	}
}

func (j *Job) run() {
	defer func() {
		if r := recover(); r != nil {
			logging.LogEvent("panic в периодической задаче, задача продолжит работу")
		}
	}()
	j.task()
}
