package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"easystay_client/domain"
	"easystay_client/errors"
	"easystay_client/service"
	"easystay_client/startup"
	"easystay_client/startup/config"
)

const dashboardBookingsPageSize = 5

// shell is the route-driven front end. Each route mirrors one page of the
// web client; navigation goes through the casbin guard first.
type shell struct {
	app   *startup.App
	route string
	in    *bufio.Scanner

	rooms        *service.Pager[domain.RoomListing]
	bookings     *service.Pager[service.BookingItem]
	managerRooms *service.Pager[domain.RoomListing]

	hotel         *domain.Hotel
	dashboardPage int
}

func main() {
	cfg := config.NewConfig()

	sh := &shell{route: service.RouteHome, in: bufio.NewScanner(os.Stdin)}

	app, err := startup.NewApp(cfg, sh.navigate)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		os.Exit(1)
	}
	sh.app = app

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			app.Logger().WithError(err).Warn("shutdown incomplete")
		}
	}()

	sh.run(ctx)
}

func (sh *shell) run(ctx context.Context) {
	fmt.Println("EasyStay. Type 'help' for commands.")
	sh.navigate(sh.route)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("bye")
			return
		default:
		}

		fmt.Printf("[%s] > ", sh.route)
		if !sh.in.Scan() {
			return
		}
		line := strings.TrimSpace(sh.in.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		sh.dispatch(ctx, line)
		sh.flushNotices()
	}
}

func (sh *shell) flushNotices() {
	for _, notice := range sh.app.Notifier.Active() {
		fmt.Printf("  [%s] %s\n", notice.Level, notice.Message)
		sh.app.Notifier.Dismiss(notice.ID)
	}
}

// navigate is also the Navigator callback the booking workflow uses for
// its post-confirmation redirect.
func (sh *shell) navigate(route string) {
	if !knownRoute(route) {
		fmt.Println("404: page not found:", route)
		return
	}
	if !sh.app.Guard.Allowed(route) {
		if !sh.app.Auth.Session().LoggedIn() {
			fmt.Println("Please sign in first.")
			sh.route = service.RouteSignIn
			return
		}
		fmt.Println("You are not allowed to open", route)
		return
	}

	sh.route = route
	sh.enterRoute()
}

func knownRoute(route string) bool {
	switch route {
	case service.RouteHome, "/rooms", "/bookings", service.RouteSignIn, "/sign-up",
		"/forgot-password", service.RouteChangePassword, service.RouteHotelManager,
		"/hotelManager/add-room", "/hotelManager/list-rooms":
		return true
	}
	return strings.HasPrefix(route, "/rooms/")
}

func (sh *shell) enterRoute() {
	ctx := context.Background()

	switch {
	case sh.route == service.RouteHome:
		fmt.Println("Search rooms: search <city>;<country>;<check-in>;<check-out>;<guests>")

	case sh.route == "/rooms":
		// Opening the page directly shows the unfiltered listing; a
		// submitted search seeds its own pager without passing here.
		sh.app.Search.ClearCriteria()
		sh.rooms = sh.app.Search.RoomsPager()
		if err := sh.rooms.LoadNext(ctx); err != nil {
			sh.fail(err, "Failed to load rooms. Please try again later!")
			return
		}
		sh.printRooms()

	case strings.HasPrefix(sh.route, "/rooms/"):
		parts := strings.Split(strings.TrimPrefix(sh.route, "/rooms/"), "/")
		if len(parts) != 2 {
			fmt.Println("404: page not found:", sh.route)
			return
		}
		sh.showRoomDetails(ctx, parts[0], parts[1])

	case sh.route == "/bookings":
		session := sh.app.Auth.Session()
		sh.bookings = sh.app.Bookings.BookingsPager(session.Username)
		if err := sh.bookings.LoadNext(ctx); err != nil {
			sh.fail(err, "Failed to load your bookings. Please try again later!")
			return
		}
		sh.printBookings()

	case sh.route == service.RouteHotelManager:
		sh.enterDashboard(ctx)

	case sh.route == "/hotelManager/list-rooms":
		if sh.hotel == nil {
			fmt.Println("Register your hotel first.")
			return
		}
		sh.managerRooms = sh.app.Rooms.ManagerRoomsPager(sh.hotel.HotelID)
		if err := sh.managerRooms.LoadNext(ctx); err != nil {
			sh.fail(err, "Failed to load rooms. Please try again later!")
			return
		}
		sh.printManagerRooms()
	}
}

func (sh *shell) enterDashboard(ctx context.Context) {
	hotel, err := sh.app.Hotels.ManagerHotel(ctx)
	if err != nil {
		sh.fail(err, "Failed to load your hotel. Please try again later!")
		return
	}
	sh.hotel = hotel
	sh.dashboardPage = 0

	if hotel == nil {
		if sh.app.Hotels.ShouldPromptRegistration(ctx) {
			fmt.Println("Welcome! Register your hotel: registerhotel <name>;<description>;<road>;<city>;<country>")
		} else {
			fmt.Println("No hotel registered yet.")
		}
		return
	}

	fmt.Printf("Hotel: %s (%s, %s)\n", hotel.Name, hotel.City, hotel.Country)
	stats, err := sh.app.Hotels.Stats(ctx, hotel.HotelID)
	if err != nil {
		sh.fail(err, "Failed to load booking stats.")
	} else {
		fmt.Printf("Total bookings: %d, total revenue: %.2f\n", stats.TotalBookings, stats.TotalRevenue)
	}
	sh.printDashboardBookings(ctx)
}

func (sh *shell) printDashboardBookings(ctx context.Context) {
	envelope, err := sh.app.Hotels.HotelBookings(ctx, sh.hotel.HotelID, sh.dashboardPage, dashboardBookingsPageSize)
	if err != nil {
		sh.fail(err, "Failed to load hotel bookings.")
		return
	}
	now := time.Now()
	for _, booking := range envelope.Content {
		fmt.Printf("  %s  %s -> %s  %s  %.2f  [%s]\n",
			booking.Username, booking.ReservedFrom, booking.ReservedTo,
			booking.RoomID, booking.TotalCosts, booking.Status(now))
	}
	fmt.Printf("Page %d of %d (page <n> to switch)\n", sh.dashboardPage+1, envelope.TotalPages)
}

func (sh *shell) dispatch(ctx context.Context, line string) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		sh.printHelp()
	case "go":
		sh.navigate(rest)
	case "search":
		sh.doSearch(ctx, rest)
	case "more":
		sh.doMore(ctx)
	case "open":
		sh.doOpen(rest)
	case "book":
		sh.doBook(rest)
	case "dates":
		sh.doDates(rest)
	case "confirm":
		sh.doConfirm(ctx)
	case "back":
		sh.app.Bookings.Discard()
		fmt.Println("Booking discarded.")
	case "cancel":
		sh.doCancel(rest)
	case "yes":
		sh.doConfirmCancel(ctx)
	case "stats":
		sh.doStats(ctx)
	case "no":
		sh.app.Bookings.DismissCancel()
	case "login":
		sh.doLogin(ctx, rest)
	case "logout":
		sh.navigate(sh.app.Auth.Logout())
	case "signup":
		sh.doSignup(ctx, rest)
	case "resend":
		if err := sh.app.Auth.ResendPassword(ctx, rest); err != nil {
			sh.printErr(err)
		}
	case "passwd":
		sh.doChangePassword(ctx, rest)
	case "registerhotel":
		sh.doRegisterHotel(ctx, rest)
	case "countries":
		for _, country := range sh.app.Hotels.CountryOptions(ctx) {
			fmt.Println(" ", country)
		}
	case "cities":
		for _, city := range sh.app.Hotels.CityOptions(ctx, rest) {
			fmt.Println(" ", city)
		}
	case "addroom":
		sh.doAddRoom(ctx, rest)
	case "delroom":
		sh.doDeleteRoom(ctx, rest)
	case "page":
		sh.doDashboardPage(ctx, rest)
	default:
		fmt.Println("Unknown command. Type 'help'.")
	}
}

func (sh *shell) printHelp() {
	fmt.Println(`Commands:
  go <route>                 navigate (/ /rooms /bookings /sign-in /sign-up
                             /forgot-password /change-password /hotelManager
                             /hotelManager/add-room /hotelManager/list-rooms)
  search <city>;<country>;<check-in>;<check-out>;<guests>
  more                       load the next page of the current list
  open <n> | book <n>        open or book the n-th listed room
  dates <in> <out>, confirm, back
  cancel <n>, yes, no        cancel the n-th listed booking
  login <user> <pass>, logout, resend <user>
  signup <first>;<last>;<email>;<user>;<role>;<pass>;<confirm>
  passwd <old> <new> <confirm>
  registerhotel <name>;<description>;<road>;<city>;<country>
  countries, cities <country>
  addroom <number>;<type>;<price>;<guests>;<amenity,...>
  delroom <n>, stats, page <n>
  exit`)
}

func (sh *shell) doSearch(ctx context.Context, rest string) {
	fields := strings.Split(rest, ";")
	if len(fields) != 5 {
		fmt.Println("usage: search <city>;<country>;<check-in>;<check-out>;<guests>")
		return
	}
	guests, _ := strconv.Atoi(strings.TrimSpace(fields[4]))

	criteria := domain.SearchCriteria{
		City:     strings.TrimSpace(fields[0]),
		Country:  strings.TrimSpace(fields[1]),
		CheckIn:  strings.TrimSpace(fields[2]),
		CheckOut: strings.TrimSpace(fields[3]),
		Guests:   guests,
	}

	result, err := sh.app.Search.SubmitSearch(ctx, criteria)
	if err != nil {
		sh.printErr(err)
		return
	}

	sh.route = "/rooms"
	sh.rooms = sh.app.Search.RoomsPager()
	sh.rooms.Seed(result.Items)
	sh.printRooms()
}

func (sh *shell) doMore(ctx context.Context) {
	switch {
	case sh.route == "/rooms" && sh.rooms != nil:
		if !sh.rooms.HasMore() {
			fmt.Println("No more rooms.")
			return
		}
		if err := sh.rooms.LoadNext(ctx); err != nil {
			sh.fail(err, "Failed to load rooms. Please try again later!")
			return
		}
		sh.printRooms()
	case sh.route == "/bookings" && sh.bookings != nil:
		if !sh.bookings.HasMore() {
			fmt.Println("No more bookings.")
			return
		}
		if err := sh.bookings.LoadNext(ctx); err != nil {
			sh.fail(err, "Failed to load your bookings. Please try again later!")
			return
		}
		sh.printBookings()
	case sh.route == "/hotelManager/list-rooms" && sh.managerRooms != nil:
		if !sh.managerRooms.HasMore() {
			fmt.Println("No more rooms.")
			return
		}
		if err := sh.managerRooms.LoadNext(ctx); err != nil {
			sh.fail(err, "Failed to load rooms. Please try again later!")
			return
		}
		sh.printManagerRooms()
	default:
		fmt.Println("Nothing to page here.")
	}
}

func (sh *shell) printRooms() {
	items := sh.rooms.Items()
	if len(items) == 0 {
		fmt.Println("No rooms found.")
		return
	}
	for i, room := range items {
		fmt.Printf("  %d. %s (%s) %s, %s  %.2f/night, up to %d guests\n",
			i+1, room.Name, room.Type.Label(), room.City, room.Country,
			room.PricePerNight, room.MaxGuests)
	}
	if sh.rooms.HasMore() {
		fmt.Println("Type 'more' for more rooms.")
	}
}

func (sh *shell) printBookings() {
	items := sh.bookings.Items()
	if len(items) == 0 {
		fmt.Println("You have no bookings yet.")
		return
	}
	now := time.Now()
	for i, item := range items {
		name := item.RoomID
		if item.Room != nil {
			name = item.Room.Name
		}
		fmt.Printf("  %d. %s  %s -> %s  %.2f  [%s]\n",
			i+1, name, item.ReservedFrom, item.ReservedTo, item.TotalCosts, item.Status(now))
	}
	if sh.bookings.HasMore() {
		fmt.Println("Type 'more' for more bookings.")
	}
}

func (sh *shell) printManagerRooms() {
	items := sh.managerRooms.Items()
	if len(items) == 0 {
		fmt.Println("No rooms yet. Add one with 'addroom'.")
		return
	}
	for i, room := range items {
		fmt.Printf("  %d. #%s %s  %.2f/night, up to %d guests\n",
			i+1, room.RoomNumber, room.Type.Label(), room.PricePerNight, room.MaxGuests)
	}
	if sh.managerRooms.HasMore() {
		fmt.Println("Type 'more' for more rooms.")
	}
}

func (sh *shell) showRoomDetails(ctx context.Context, hotelID, roomID string) {
	details, err := sh.app.Rooms.Details(ctx, hotelID, roomID)
	if err != nil {
		sh.fail(err, "Failed to load the room. Please try again later!")
		return
	}
	fmt.Printf("%s (%s) at %s, %s %s\n", details.Room.Name, details.Room.Type.Label(),
		details.Hotel.Name, details.Hotel.City, details.Hotel.Country)
	fmt.Printf("%.2f per night, up to %d guests\n", details.Room.PricePerNight, details.Room.MaxGuests)
	for _, amenity := range details.Room.Amenities {
		fmt.Println("  -", amenity)
	}
	for _, photoURL := range details.PhotoURLs {
		fmt.Println("  photo:", photoURL)
	}
	fmt.Println("Type 'book 1' to book this room.")

	sh.rooms = service.NewPager(1, func(context.Context, int) ([]domain.RoomListing, error) {
		return nil, nil
	})
	sh.rooms.Seed([]domain.RoomListing{details.Room})
}

func (sh *shell) roomAt(rest string) (domain.RoomListing, bool) {
	if sh.rooms == nil {
		fmt.Println("Search for rooms first.")
		return domain.RoomListing{}, false
	}
	index, err := strconv.Atoi(rest)
	items := sh.rooms.Items()
	if err != nil || index < 1 || index > len(items) {
		fmt.Println("No such room.")
		return domain.RoomListing{}, false
	}
	return items[index-1], true
}

func (sh *shell) doOpen(rest string) {
	room, ok := sh.roomAt(rest)
	if !ok {
		return
	}
	sh.navigate("/rooms/" + room.HotelID + "/" + room.RoomID)
}

func (sh *shell) doBook(rest string) {
	if !sh.app.Auth.Session().LoggedIn() {
		fmt.Println("Please sign in to book a room.")
		sh.route = service.RouteSignIn
		return
	}
	room, ok := sh.roomAt(rest)
	if !ok {
		return
	}

	checkIn, checkOut := "", ""
	if criteria, active := sh.app.Search.ActiveCriteria(); active {
		checkIn, checkOut = criteria.CheckIn, criteria.CheckOut
	}
	sh.app.Bookings.Start(room, checkIn, checkOut)
	fmt.Printf("Booking %s. Dates: %q -> %q. Use 'dates <in> <out>' and 'confirm'.\n",
		room.Name, checkIn, checkOut)
}

func (sh *shell) doDates(rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		fmt.Println("usage: dates <check-in> <check-out>  (YYYY-MM-DD)")
		return
	}
	if err := sh.app.Bookings.SetDates(fields[0], fields[1]); err != nil {
		sh.printErr(err)
		return
	}
	checkIn, checkOut := sh.app.Bookings.Dates()
	fmt.Printf("Dates set: %s -> %s\n", checkIn, checkOut)
}

func (sh *shell) doConfirm(ctx context.Context) {
	if err := sh.app.Bookings.Confirm(ctx); err != nil {
		sh.printErr(err)
	}
}

func (sh *shell) doCancel(rest string) {
	if sh.bookings == nil {
		fmt.Println("Open your bookings first.")
		return
	}
	index, err := strconv.Atoi(rest)
	items := sh.bookings.Items()
	if err != nil || index < 1 || index > len(items) {
		fmt.Println("No such booking.")
		return
	}

	item := items[index-1]
	if err := sh.app.Bookings.RequestCancel(item.Booking); err != nil {
		sh.printErr(err)
		return
	}
	fmt.Printf("Cancel the booking %s -> %s? (yes/no)\n", item.ReservedFrom, item.ReservedTo)
}

func (sh *shell) doConfirmCancel(ctx context.Context) {
	bookingID, err := sh.app.Bookings.ConfirmCancel(ctx)
	if err != nil {
		sh.printErr(err)
		return
	}
	if sh.bookings != nil {
		sh.bookings.Mutate(func(items []service.BookingItem) []service.BookingItem {
			for i := range items {
				if items[i].BookingID == bookingID {
					items[i].IsCancelled = true
				}
			}
			return items
		})
		sh.printBookings()
	}
}

func (sh *shell) doLogin(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		fmt.Println("usage: login <username> <password>")
		return
	}
	route, err := sh.app.Auth.Login(ctx, fields[0], fields[1])
	if err != nil {
		sh.printErr(err)
		return
	}
	sh.navigate(route)
}

func (sh *shell) doSignup(ctx context.Context, rest string) {
	fields := strings.Split(rest, ";")
	if len(fields) != 7 {
		fmt.Println("usage: signup <first>;<last>;<email>;<username>;<role>;<password>;<confirm>")
		return
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	request := &domain.RegisterRequest{
		FirstName: fields[0],
		LastName:  fields[1],
		Email:     fields[2],
		Username:  fields[3],
		Role:      domain.Role(fields[4]),
		Password:  fields[5],
	}
	if err := sh.app.Auth.Signup(ctx, request, fields[6]); err != nil {
		sh.printErr(err)
		return
	}
	sh.navigate(service.RouteSignIn)
}

func (sh *shell) doChangePassword(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 3 {
		fmt.Println("usage: passwd <old> <new> <confirm>")
		return
	}
	route, err := sh.app.Auth.ChangePassword(ctx, fields[0], fields[1], fields[2])
	if err != nil {
		sh.printErr(err)
		return
	}
	sh.navigate(route)
}

func (sh *shell) doRegisterHotel(ctx context.Context, rest string) {
	fields := strings.Split(rest, ";")
	if len(fields) != 5 {
		fmt.Println("usage: registerhotel <name>;<description>;<road>;<city>;<country>")
		return
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	hotel, err := sh.app.Hotels.RegisterHotel(ctx, domain.HotelRegistration{
		Name:        fields[0],
		Description: fields[1],
		RoadName:    fields[2],
		City:        fields[3],
		Country:     fields[4],
	})
	if err != nil {
		sh.printErr(err)
		return
	}
	sh.hotel = hotel
	sh.navigate(service.RouteHotelManager)
}

func (sh *shell) doAddRoom(ctx context.Context, rest string) {
	if sh.hotel == nil {
		fmt.Println("Register your hotel first.")
		return
	}
	fields := strings.Split(rest, ";")
	if len(fields) < 4 {
		fmt.Println("usage: addroom <number>;<type>;<price>;<guests>;<amenity,...>")
		return
	}
	price, _ := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	guests, _ := strconv.Atoi(strings.TrimSpace(fields[3]))

	room := domain.NewRoom{
		RoomNumber:    strings.TrimSpace(fields[0]),
		Type:          domain.RoomType(strings.TrimSpace(fields[1])),
		PricePerNight: price,
		MaxGuests:     guests,
	}
	if len(fields) > 4 {
		for _, amenity := range strings.Split(fields[4], ",") {
			if amenity = strings.TrimSpace(amenity); amenity != "" {
				room.Amenities = append(room.Amenities, domain.Amenity(amenity))
			}
		}
	}

	if _, err := sh.app.Rooms.AddRoom(ctx, sh.hotel.HotelID, room, nil); err != nil {
		sh.printErr(err)
		return
	}
	sh.navigate("/hotelManager/list-rooms")
}

func (sh *shell) doDeleteRoom(ctx context.Context, rest string) {
	if sh.managerRooms == nil {
		fmt.Println("Open the room list first.")
		return
	}
	index, err := strconv.Atoi(rest)
	items := sh.managerRooms.Items()
	if err != nil || index < 1 || index > len(items) {
		fmt.Println("No such room.")
		return
	}

	room := items[index-1]
	if err := sh.app.Rooms.DeleteRoom(ctx, room.RoomID); err != nil {
		sh.printErr(err)
		return
	}
	sh.managerRooms.Mutate(func(rooms []domain.RoomListing) []domain.RoomListing {
		kept := rooms[:0]
		for _, r := range rooms {
			if r.RoomID != room.RoomID {
				kept = append(kept, r)
			}
		}
		return kept
	})
	sh.printManagerRooms()
}

func (sh *shell) doStats(ctx context.Context) {
	if sh.hotel == nil {
		fmt.Println("Open the dashboard first.")
		return
	}
	stats, err := sh.app.Hotels.Stats(ctx, sh.hotel.HotelID)
	if err != nil {
		sh.fail(err, "Failed to load booking stats.")
		return
	}
	fmt.Printf("Total bookings: %d, total revenue: %.2f\n", stats.TotalBookings, stats.TotalRevenue)
}

func (sh *shell) doDashboardPage(ctx context.Context, rest string) {
	if sh.route != service.RouteHotelManager || sh.hotel == nil {
		fmt.Println("Open the dashboard first.")
		return
	}
	page, err := strconv.Atoi(rest)
	if err != nil || page < 1 {
		fmt.Println("usage: page <n>")
		return
	}
	sh.dashboardPage = page - 1
	sh.printDashboardBookings(ctx)
}

// fail prints a friendly message for one failed load and handles an
// expired session by routing to sign-in.
func (sh *shell) fail(err error, message string) {
	if err == errors.ErrAuthExpired {
		sh.sessionExpired()
		return
	}
	if apiErr, ok := err.(*errors.APIError); ok {
		fmt.Println(apiErr.UserMessage(message))
		return
	}
	fmt.Println(message)
}

func (sh *shell) printErr(err error) {
	switch e := err.(type) {
	case *errors.ValidationError:
		fmt.Println(e.Message)
	case *errors.APIError:
		// The notifier already carries the friendly message.
	default:
		if err == errors.ErrAuthExpired {
			sh.sessionExpired()
		}
	}
}

func (sh *shell) sessionExpired() {
	sh.app.Auth.Logout()
	fmt.Println("Your session has expired. Please sign in again.")
	sh.route = service.RouteSignIn
}
