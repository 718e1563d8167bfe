package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gasindo/gastrack-backend/api/controllers"
	"github.com/gasindo/gastrack-backend/api/middleware"
	"github.com/gasindo/gastrack-backend/internal/assignments"
	"github.com/gasindo/gastrack-backend/internal/cylinders"
	"github.com/gasindo/gastrack-backend/internal/deliveries"
	"github.com/gasindo/gastrack-backend/internal/ledger"
	"github.com/gasindo/gastrack-backend/internal/orders"
	"github.com/gasindo/gastrack-backend/internal/returns"
	"github.com/gasindo/gastrack-backend/pkg/config"
	"github.com/gasindo/gastrack-backend/pkg/db"
	"github.com/gasindo/gastrack-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	ledgerService *ledger.Service,
	cylinderService *cylinders.Service,
	assignmentService *assignments.Service,
	orderService *orders.Service,
	deliveryService *deliveries.Service,
	returnService *returns.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/track/{trackingCode}", controllers.TrackDelivery(deliveryService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/cylinders", func(r chi.Router) {
			r.Post("/", controllers.RegisterCylinder(cylinderService, logg))
			r.Post("/bulk", controllers.BulkRegisterCylinders(cylinderService, logg))
			r.Post("/status", controllers.ChangeCylinderStatus(cylinderService, logg))
			r.Post("/status/bulk", controllers.BulkChangeCylinderStatus(cylinderService, logg))
			r.Get("/summary", controllers.StockSummary(cylinderService, logg))
			r.Get("/{barcode}", controllers.CylinderDetails(cylinderService, logg))
			r.Get("/{cylinderId}/history", controllers.CylinderHistory(ledgerService, logg))
		})

		r.Get("/movements", controllers.ListMovements(ledgerService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(orderService, logg))
			r.Get("/", controllers.ListOrders(orderService, logg))
			r.Get("/queue", controllers.OrdersToPrepare(orderService, logg))
			r.Get("/number/{orderNumber}", controllers.OrderDetailByNumber(orderService, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(orderService, logg))
				r.Get("/history", controllers.OrderHistory(orderService, logg))
				r.Post("/transition", controllers.TransitionOrder(orderService, logg))
				r.Post("/prepared", controllers.MarkOrderPrepared(orderService, logg))
				r.Post("/warehouse", controllers.ReassignOrderWarehouse(orderService, logg))
				r.Post("/cancel", controllers.CancelOrder(orderService, logg))
				r.Post("/assignments", controllers.AssignCylindersForOrder(assignmentService, logg))
			})
		})

		r.Route("/order-items/{itemId}", func(r chi.Router) {
			r.Get("/recommendations", controllers.RecommendCylinders(assignmentService, logg))
			r.Post("/assignments/validate", controllers.ValidateAssignment(assignmentService, logg))
			r.Post("/assignments", controllers.AssignCylinders(assignmentService, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/", controllers.CreateDelivery(deliveryService, logg))
			r.Get("/mine", controllers.DriverDeliveryQueue(deliveryService, logg))
			r.Get("/ready-orders", controllers.OrdersReadyForDelivery(deliveryService, logg))
			r.Route("/{deliveryId}", func(r chi.Router) {
				r.Get("/", controllers.DeliveryDetail(deliveryService, logg))
				r.Post("/pickup", controllers.DeliveryPickup(deliveryService, logg))
				r.Post("/complete", controllers.DeliveryComplete(deliveryService, logg))
				r.Post("/fail", controllers.DeliveryFail(deliveryService, logg))
			})
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/pickup", controllers.PickupReturns(returnService, logg))
			r.Get("/incoming", controllers.IncomingReturns(returnService, logg))
			r.Post("/receive", controllers.ReceiveReturns(returnService, logg))
		})
	})

	return r
}
