package monitoring

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"tenantpay/internal/health"
	"tenantpay/internal/payments"
	"tenantpay/internal/store"
	"tenantpay/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// MonitoringServer is an optional local diagnostics server for the
// payment engine: health, metrics, current payment state, and a live
// websocket feed of poll events. The payment core does not depend on it.
type MonitoringServer struct {
	store   store.Store
	health  *health.HealthChecker
	port    int
	origins []string
	started time.Time

	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan payments.PollEvent
}

type EngineStats struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	HistoryCount  int     `json:"history_count"`
	HasPending    bool    `json:"has_pending"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewMonitoringServer(s store.Store, h *health.HealthChecker, port int, corsOrigins []string) *MonitoringServer {
	return &MonitoringServer{
		store:     s,
		health:    h,
		port:      port,
		origins:   corsOrigins,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan payments.PollEvent, 16),
	}
}

// PublishPollEvent mirrors a poll event to connected websocket clients
func (ms *MonitoringServer) PublishPollEvent(ev payments.PollEvent) {
	select {
	case ms.broadcast <- ev:
	default:
		// Diagnostics feed only; never block the poll loop
	}
}

// Start runs the diagnostics server in the background
func (ms *MonitoringServer) Start() {
	ms.started = time.Now()

	r := mux.NewRouter()
	r.HandleFunc("/healthz", ms.getHealth).Methods("GET")
	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")
	r.HandleFunc("/api/pending", ms.getPending).Methods("GET")
	r.HandleFunc("/api/history", ms.getHistory).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// WebSocket for real-time poll events
	r.HandleFunc("/ws/events", ms.handleWebSocket)

	go ms.handleBroadcast()

	c := cors.New(cors.Options{
		AllowedOrigins: ms.origins,
		AllowedMethods: []string{"GET"},
		MaxAge:         300, // 5 minutes
	})

	addr := fmt.Sprintf(":%d", ms.port)
	log.Printf("[Monitoring] Diagnostics server running on %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, c.Handler(r)); err != nil {
			log.Printf("[Monitoring] Diagnostics server stopped: %v", err)
		}
	}()
}

func (ms *MonitoringServer) getHealth(w http.ResponseWriter, r *http.Request) {
	status := ms.health.CheckBasic()
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

func (ms *MonitoringServer) getStats(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, ms.collectStats(r))
}

func (ms *MonitoringServer) collectStats(r *http.Request) EngineStats {
	cpuPercents, _ := cpu.Percent(0, false)
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	memStats, _ := mem.VirtualMemory()
	memPercent := 0.0
	memUsed := ""
	memTotal := ""
	if memStats != nil {
		memPercent = memStats.UsedPercent
		memUsed = formatBytes(memStats.Used)
		memTotal = formatBytes(memStats.Total)
	}

	diskPercent := 0.0
	if diskStats, err := disk.Usage("/"); err == nil {
		diskPercent = diskStats.UsedPercent
	}

	history, _ := ms.store.History(r.Context())
	pending, _ := ms.store.GetPending(r.Context())

	return EngineStats{
		Status:        ms.health.CheckBasic().Status,
		Uptime:        formatUptime(int(time.Since(ms.started).Seconds())),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskPercent:   diskPercent,
		MemoryUsed:    memUsed,
		MemoryTotal:   memTotal,
		HistoryCount:  len(history),
		HasPending:    pending != nil,
	}
}

func (ms *MonitoringServer) getPending(w http.ResponseWriter, r *http.Request) {
	pending, err := ms.store.GetPending(r.Context())
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if pending == nil {
		utils.JSON(w, http.StatusNotFound, map[string]string{"error": "no pending payment"})
		return
	}
	utils.JSON(w, http.StatusOK, pending)
}

func (ms *MonitoringServer) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := ms.store.History(r.Context())
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	utils.JSON(w, http.StatusOK, history)
}

func (ms *MonitoringServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ms.clientsMux.Lock()
	ms.clients[conn] = true
	ms.clientsMux.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			ms.clientsMux.Lock()
			delete(ms.clients, conn)
			ms.clientsMux.Unlock()
			break
		}
	}
}

func (ms *MonitoringServer) handleBroadcast() {
	for ev := range ms.broadcast {
		ms.clientsMux.Lock()
		for client := range ms.clients {
			if err := client.WriteJSON(ev); err != nil {
				client.Close()
				delete(ms.clients, client)
			}
		}
		ms.clientsMux.Unlock()
	}
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatUptime(seconds int) string {
	d := seconds / 86400
	h := (seconds % 86400) / 3600
	m := (seconds % 3600) / 60
	if d > 0 {
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
