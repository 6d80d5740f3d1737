package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(packPurchases)
}

var packPurchases = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pack_purchases_total",
		Help: "Minute pack purchases, by pack size.",
	},
	[]string{"minutes"},
)

func IncPurchase(minutes int) {
	packPurchases.WithLabelValues(strconv.Itoa(minutes)).Inc()
}
