package models

const (
	OrderStatusPending   = "pendente"
	OrderStatusConfirmed = "confirmado"
	OrderStatusPreparing = "em_preparo"
	OrderStatusReady     = "pronto"
	OrderStatusDelivered = "entregue"
	OrderStatusCancelled = "cancelado"
)

const (
	PaymentCash = "dinheiro"
	PaymentPix  = "pix"
	PaymentCard = "cartao"
)

const (
	NotificationTypeMenuUpdated = "CARDAPIO_UPDATED"
	NotificationSourceAdmin     = "admin"
)

const (
	// NotificationKey holds the most recent menu update notification.
	NotificationKey = "cardapioUpdateNotification"
	LastUpdateKey   = "lastUpdate"
	BroadcastTopic  = "cardapio-updates"
)

const (
	DefaultItemImage = "/img/default.jpg"
	DefaultItemOrder = 999
)

// Site info keys.
const (
	SiteInfoName      = "nome"
	SiteInfoPhone     = "telefone"
	SiteInfoAddress   = "endereco"
	SiteInfoHours     = "horario_funcionamento"
	SiteInfoInstagram = "instagram"
	SiteInfoWhatsApp  = "whatsapp"
)

var SiteInfoKeys = []string{
	SiteInfoName,
	SiteInfoPhone,
	SiteInfoAddress,
	SiteInfoHours,
	SiteInfoInstagram,
	SiteInfoWhatsApp,
}

func IsSiteInfoKey(key string) bool {
	for _, k := range SiteInfoKeys {
		if k == key {
			return true
		}
	}
	return false
}

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var PaymentMethods = []string{PaymentCash, PaymentPix, PaymentCard}

func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
