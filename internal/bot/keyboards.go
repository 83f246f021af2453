package bot

import (
	"fmt"
	"strings"

	"github.com/GariBroman/osminog/internal/models"
	"github.com/google/uuid"
)

// Разделитель callback-данных: «глагол:::аргумент».
const cbSep = ":::"

// Callback-глаголы. Данные кнопки собираются через cb().
const (
	cbCheckAccess        = "check_access"
	cbNewClient          = "new_client"
	cbNewContractor      = "new_contractor"
	cbNewRequest         = "new_request"
	cbCancel             = "cancel"
	cbClientMain         = "client_main"
	cbContractorMain     = "contractor_main"
	cbClientOrders       = "client_current_orders"
	cbClientTariff       = "client_current_tariff"
	cbShowOrder          = "show_order"
	cbOrderComment       = "new_order_comment"
	cbOrderComplaint     = "complaint"
	cbContractorContacts = "send_contractor_contacts"
	cbCreateSubscription = "create_subscription"
	cbActivateTariff     = "activate_subscription"
	cbAvailableOrders    = "contractor_available_orders"
	cbTakeOrder          = "take_order"
	cbContractorOrders   = "contractor_current_orders"
	cbSetEstimate        = "contractor_set_estimate_datetime"
	cbFinishOrder        = "finish_order"
	cbSalary             = "contractor_salary"
	cbCatalog            = "catalog"
	cbCategory           = "category"
	cbAddToCart          = "add_to_cart"
	cbCart               = "cart"
	cbClearCart          = "clear_cart"
	cbCheckout           = "checkout"
	cbMyServices         = "my_services"
	cbNewService         = "new_service"
	cbDeleteService      = "delete_service"
	cbOpenComplaints     = "open_complaints"
	cbCloseComplaint     = "close_complaint"
	cbDeclineOrder       = "decline_order"
	cbApplications       = "contractor_applications"
	cbApproveContractor  = "approve_contractor"
)

func cb(verb string, args ...string) string {
	if len(args) == 0 {
		return verb
	}
	return verb + cbSep + strings.Join(args, cbSep)
}

// cbArg возвращает аргумент callback-данных после глагола.
func cbArg(data string) string {
	_, arg, _ := strings.Cut(data, cbSep)
	return arg
}

func cbArgUUID(data string) (uuid.UUID, error) {
	id, err := uuid.Parse(cbArg(data))
	if err != nil {
		return uuid.Nil, fmt.Errorf("callback %q: %w", data, err)
	}
	return id, nil
}

func phoneKeyboard() Keyboard {
	return Keyboard{row(Button{Text: "Поделиться номером", RequestContact: true})}
}

func roleKeyboard() Keyboard {
	return Keyboard{
		row(btn("Я заказчик", cb(cbCheckAccess, "client")),
			btn("Я подрядчик", cb(cbCheckAccess, "contractor"))),
		row(btn("Стать клиентом", cbNewClient),
			btn("Стать подрядчиком", cbNewContractor)),
	}
}

func clientMainKeyboard() Keyboard {
	return Keyboard{
		row(btn("Отправить заявку", cbNewRequest)),
		row(btn("Мои текущие заказы", cbClientOrders)),
		row(btn("Мой тариф", cbClientTariff)),
		row(btn("Каталог услуг", cbCatalog), btn("Корзина", cbCart)),
		row(btn("Стать подрядчиком", cbNewContractor)),
	}
}

func contractorMainKeyboard() Keyboard {
	return Keyboard{
		row(btn("Посмотреть доступные заказы", cbAvailableOrders)),
		row(btn("Посмотреть актуальные заказы", cbContractorOrders)),
		row(btn("Мои услуги", cbMyServices)),
		row(btn("Посмотреть зарплату", cbSalary)),
	}
}

func managerMainKeyboard() Keyboard {
	return Keyboard{
		row(btn("Открытые претензии", cbOpenComplaints)),
		row(btn("Заявки подрядчиков", cbApplications)),
	}
}

func cancelKeyboard() Keyboard {
	return Keyboard{row(btn("Я передумал", cbCancel))}
}

func clientOrdersKeyboard(orders []models.Order) Keyboard {
	var kb Keyboard
	for num, o := range orders {
		kb = append(kb, row(btn(fmt.Sprintf("Заказ %d", num+1), cb(cbShowOrder, o.ID.String()))))
	}
	kb = append(kb, row(btn("На главную", cbClientMain)))
	return kb
}

func clientOrderKeyboard(o models.Order, contactsVisible bool) Keyboard {
	kb := Keyboard{
		row(btn("Отправить уточнение", cb(cbOrderComment, o.ID.String()))),
		row(btn("Есть претензия", cb(cbOrderComplaint, o.ID.String()))),
	}
	if contactsVisible {
		kb = append(kb, row(btn("Показать контакты подрядчика", cb(cbContractorContacts, o.ID.String()))))
	}
	kb = append(kb, row(btn("На главную", cbClientMain)))
	return kb
}

func availableOrdersKeyboard(orders []models.Order) Keyboard {
	var kb Keyboard
	for num, o := range orders {
		kb = append(kb, row(btn(fmt.Sprintf("Взять заказ %d в работу", num+1), cb(cbTakeOrder, o.ID.String()))))
	}
	kb = append(kb, row(btn("На главную", cbContractorMain)))
	return kb
}

func contractorOrdersKeyboard(orders []models.Order) Keyboard {
	var kb Keyboard
	for num, o := range orders {
		kb = append(kb,
			row(btn(fmt.Sprintf("Указать срок заказа %d", num+1), cb(cbSetEstimate, o.ID.String())),
				btn(fmt.Sprintf("Сдать заказ %d", num+1), cb(cbFinishOrder, o.ID.String()))))
	}
	kb = append(kb, row(btn("На главную", cbContractorMain)))
	return kb
}

func tariffsKeyboard(tariffs []models.Tariff) Keyboard {
	var kb Keyboard
	for _, t := range tariffs {
		kb = append(kb, row(btn(fmt.Sprintf("%s — %d руб.", t.Title, t.Price), cb(cbActivateTariff, t.ID.String()))))
	}
	kb = append(kb, row(btn("Я передумал", cbCancel)))
	return kb
}

func subscribeKeyboard() Keyboard {
	return Keyboard{
		row(btn("Оформить подписку", cbCreateSubscription)),
		row(btn("Я передумал", cbCancel)),
	}
}

func categoriesKeyboard(categories []models.ServiceCategory, back string) Keyboard {
	var kb Keyboard
	for _, c := range categories {
		kb = append(kb, row(btn(c.Title, cb(cbCategory, c.ID.String()))))
	}
	kb = append(kb, row(btn("На главную", back)))
	return kb
}

func servicesKeyboard(services []models.Service) Keyboard {
	var kb Keyboard
	for _, s := range services {
		kb = append(kb, row(btn(fmt.Sprintf("%s — %d руб.", s.Title, s.FinalPrice()),
			cb(cbAddToCart, s.ID.String()))))
	}
	kb = append(kb, row(btn("Корзина", cbCart), btn("На главную", cbClientMain)))
	return kb
}

func cartKeyboard() Keyboard {
	return Keyboard{
		row(btn("Оформить заказ", cbCheckout)),
		row(btn("Очистить корзину", cbClearCart)),
		row(btn("На главную", cbClientMain)),
	}
}

func myServicesKeyboard(services []models.Service) Keyboard {
	kb := Keyboard{row(btn("Добавить услугу", cbNewService))}
	for _, s := range services {
		kb = append(kb, row(btn("Удалить «"+s.Title+"»", cb(cbDeleteService, s.ID.String()))))
	}
	kb = append(kb, row(btn("На главную", cbContractorMain)))
	return kb
}

func complaintsKeyboard(complaints []models.Complaint) Keyboard {
	var kb Keyboard
	for num, c := range complaints {
		kb = append(kb, row(btn(fmt.Sprintf("Закрыть претензию %d", num+1), cb(cbCloseComplaint, c.ID.String())),
			btn(fmt.Sprintf("Отклонить заказ %d", num+1), cb(cbDeclineOrder, c.OrderID.String()))))
	}
	return kb
}

func applicationsKeyboard(apps []models.Contractor) Keyboard {
	var kb Keyboard
	for num, a := range apps {
		kb = append(kb, row(btn(fmt.Sprintf("Одобрить заявку %d", num+1), cb(cbApproveContractor, a.ID.String()))))
	}
	return kb
}
