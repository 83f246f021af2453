package bot

import (
	"fmt"
	"strings"

	"github.com/GariBroman/osminog/internal/models"
)

// Тексты диалога. Форматирующие варианты оформлены функциями ниже.
const (
	msgHelloVisitor = "Здравствуйте!\n" +
		"Для регистрации введите 📱 номер телефона или нажмите кнопку ⬇️ «Поделиться номером».\n\n" +
		"❗️ Отправляя ваши персональные данные вы соглашаетесь с политикой конфиденциальности."

	msgRegistrationComplete = "Вы успешно зарегистрировались"

	msgCheckRole = "Укажите кто вы."

	msgClientMain = "Вы на главной странице заказчика.\n\n" +
		"Можете отправить заявку, посмотреть текущие заказы или каталог услуг."

	msgContractorMain = "Вы на главной странице подрядчика.\n\n" +
		"Можете посмотреть доступные и актуальные заказы или управлять своими услугами."

	msgManagerMain = "Вы на главной странице менеджера."

	msgOwnerMain = "Вы на главной странице владельца."

	msgDescribeRequest = "Опишите тезисно вашу проблему.\n\n" +
		"❗️ У вас есть на это 1000 символов с учетом пробелов и спец. символов."

	msgTooLong = "‼️ Превышен лимит символов.\n\n" +
		"❗️ У вас есть на это 1000 символов с учетом пробелов и спец. символов."

	msgSuccessRequest = "✅ Заявка отправлена!\nОжидайте звонка менеджера!"

	msgNewClientComment = "Напишите ваш комментарий к заказу и мы сразу уведомим " +
		"администратора и исполнителя о вашем пожелании.\n\n❗️ Максимально 1000 символов."

	msgSuccessComment = "✅ Ваш комментарий отправлен"

	msgNewComplaint = "Опишите вашу претензию к заказу.\n\n❗️ Максимально 1000 символов."

	msgSuccessComplaint = "✅ Ваша претензия отправлена"

	msgSubscriptionAlert = "❗️ Для использования сервиса вам необходимо приобрести подписку"

	msgNoAvailableRequests = "❌ Похоже что вы достигли лимита заявок по вашей подписке.\n\n" +
		"Нужно больше заявок — можете приобрести дополнительную подписку."

	msgNewContractor = "Для того, чтобы стать исполнителем, вам необходимо написать " +
		"на чем вы специализируетесь.\n(Уложитесь пожалуйста в 1000 символов).\n\n" +
		"С вами свяжется наш менеджер, проведет собеседование и расскажет детали."

	msgNewContractorCreated = "Ваша заявка передана администратору.\n\n" +
		"Ожидайте, с вами свяжутся в течение суток"

	msgNotContractor = "❌ Вы не числитесь как активный подрядчик."

	msgNoActiveOrders = "У вас нет активных заказов"

	msgNoAvailableOrders = "У вас нет доступных заказов"

	msgApproveOrderContractor = "Заказ ваш!"

	msgOrderTaken = "Заказ уже взят другим подрядчиком"

	msgOrderClosed = "Заказ закрыт"

	msgSetEstimate = "Введите дату и время в формате ГГГГ:ММ:ДД:ЧЧ:ММ"

	msgContractorNotFound = "Исполнитель на ваш заказ еще не назначен. 🙏"

	msgOK = "Как скажете"

	msgPaymentExpired = "Счет устарел, начните оформление подписки заново"

	msgSelectCategory = "Выберите категорию услуг:"

	msgCartEmpty = "Ваша корзина пуста.\n\nВыберите категорию услуг, чтобы добавить услуги в корзину."

	msgAddedToCart = "✅ Услуга добавлена в корзину!"

	msgCartCleared = "✅ Корзина очищена!"

	msgServiceAdded = "✅ Услуга успешно добавлена!"

	msgServiceDeleted = "✅ Услуга успешно удалена!"

	msgContractorServicesEmpty = "У вас пока нет добавленных услуг.\n\n" +
		"Нажмите «Добавить услугу», чтобы создать новую карточку услуги."

	msgNewService = "Отправьте карточку услуги одним сообщением в формате:\n" +
		"Название; описание; цена"

	msgNoOpenComplaints = "Открытых претензий нет"

	msgNoApplications = "Новых заявок подрядчиков нет"

	msgApology = "Что-то пошло не так, попробуйте еще раз"
)

func msgInvalidPhone(raw string) string {
	return fmt.Sprintf("Похоже что вы с ошибкой отправили номер телефона.\n"+
		"Не могу распознать номер «%s».\n"+
		"Попробуйте еще раз или просто воспользуйтесь кнопкой.\n\n"+
		"ВНИМАНИЕ! Регистрация является обязательным условием использования сервиса.", raw)
}

func msgTariffs(tariffs []models.Tariff) string {
	var b strings.Builder
	b.WriteString("Давайте расскажу про наши тарифные планы:\n")
	for _, t := range tariffs {
		fmt.Fprintf(&b, "\n%s:\n%d заявок в месяц.\nВремя ответа на заявку: %d ч.\n",
			t.Title, t.OrdersLimit, t.AnswerDelayHours)
		if t.PersonalContractorAssignable {
			b.WriteString("Возможность закрепить за собой подрядчика.\n")
		}
		if t.ContractorContactsVisible {
			b.WriteString("Возможность увидеть контакты подрядчика.\n")
		}
	}
	return b.String()
}

func msgOrderLine(o models.Order) string {
	state := map[models.OrderState]string{
		models.OrderOpen:     "ищем исполнителя",
		models.OrderAssigned: "в работе",
		models.OrderFinished: "выполнен",
		models.OrderDeclined: "отклонен",
	}[o.State()]
	line := fmt.Sprintf("%s\nСтатус: %s", o.Description, state)
	if o.EstimatedTime != nil {
		line += fmt.Sprintf("\nСрок: %s", o.EstimatedTime.Format("02.01.2006 15:04"))
	}
	return line
}

func msgOrders(title string, orders []models.Order) string {
	var b strings.Builder
	b.WriteString(title)
	for num, o := range orders {
		fmt.Fprintf(&b, "\n\nЗаказ %d.\n%s", num+1, msgOrderLine(o))
	}
	return b.String()
}

func msgService(s models.Service) string {
	text := fmt.Sprintf("%s\n\nОписание: %s\n\nЦена: %d руб.", s.Title, s.Description, s.FinalPrice())
	if s.DiscountPercent > 0 {
		text += fmt.Sprintf(" (скидка %d%%)", s.DiscountPercent)
	}
	return text
}

func msgCart(set *models.ServiceSet) string {
	if set == nil || len(set.Services) == 0 {
		return msgCartEmpty
	}
	var b strings.Builder
	b.WriteString("Ваша корзина:\n")
	for _, s := range set.Services {
		fmt.Fprintf(&b, "\n%s — %d руб.", s.Title, s.FinalPrice())
	}
	fmt.Fprintf(&b, "\n\nИтого: %d руб.", set.Total())
	return b.String()
}

func msgSalary(count, total int) string {
	return fmt.Sprintf("За текущий период выполнено заказов: %d\nЗаработано: %d руб.", count, total)
}

// Уведомления менеджерам. Заголовки совпадают с шаблонами, по которым
// менеджеры фильтруют чат.
func notifyNewOrder(o models.Order) string {
	return fmt.Sprintf("NEW ORDER\n\n%s", o.Description)
}

func notifyNewComment(o models.Order, comment string) string {
	return fmt.Sprintf("NEW COMMENT\norder: %s\n\ncomment: %s", o.Description, comment)
}

func notifyNewComplaint(o models.Order, complaint string) string {
	return fmt.Sprintf("NEW COMPLAINT\norder: %s\n\ncomplaint: %s", o.Description, complaint)
}

func notifyNewContractor(name, about string) string {
	return fmt.Sprintf("NEW CONTRACTOR\ncontractor: %s\n\nrequest: %s", name, about)
}

func notifyOrderTaken(o models.Order) string {
	return fmt.Sprintf("CONTRACTOR TAKE ORDER\n\norder: %s", o.Description)
}

func notifyOrderFinished(o models.Order) string {
	return fmt.Sprintf("CONTRACTOR FINISHED ORDER\n\norder: %s", o.Description)
}

func notifyEstimateSet(o models.Order) string {
	when := ""
	if o.EstimatedTime != nil {
		when = o.EstimatedTime.Format("02.01.2006 15:04")
	}
	return fmt.Sprintf("CONTRACTOR SET ESTIMATE\n%s\n\norder: %s", when, o.Description)
}
