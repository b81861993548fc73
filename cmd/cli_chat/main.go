package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"complaint-chat/internal/chatbot"
	"complaint-chat/internal/config"
	"complaint-chat/internal/domain"
	"complaint-chat/internal/repository"
	"complaint-chat/internal/service"
)

func main() {
	var (
		tokenFlag     = flag.String("token", "", "access token del usuario (JWT)")
		loginFlag     = flag.String("login", "", "emite un token de desarrollo: uid:rol[:departamento[:nombre]]")
		pageFlag      = flag.String("page", "/", "pagina actual del portal")
		clipboardFlag = flag.String("clipboard", "", "archivo donde /copy escribe; vacio = stdout")
	)
	flag.Parse()

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	store, err := repository.NewHistoryStore(cfg.ChatHistoryDriver, cfg.ChatHistoryPath, cfg.ChatHistorySlot, redisClient, cfg.HistoryRetention())
	if err != nil {
		log.Fatalf("history store %q: %v", cfg.ChatHistoryDriver, err)
	}

	identity, token, err := resolveIdentity(cfg, *tokenFlag, *loginFlag)
	if err != nil {
		log.Fatalf("identidad: %v", err)
	}

	transport := chatbot.NewHTTPClient(cfg.ChatbotAPIURL, token, cfg.ChatbotTimeout(), logger)
	session := service.NewChatSession(ctx, service.ChatSessionDeps{
		Transport: transport,
		History:   service.NewHistoryService(store, cfg.HistoryRetention(), logger),
		Clipboard: newClipboard(*clipboardFlag),
		Speech:    newReaderSpeech(reader, os.Stdout),
		Logger:    logger,
	})
	session.SetIdentity(identity)
	session.SetPage(*pageFlag)

	monitor := service.NewInactivityMonitor(session, cfg.InactivityTimeout(), logger)
	defer monitor.Stop()

	r := newRenderer(os.Stdout)
	unsubscribe := session.Subscribe(r.render)
	defer unsubscribe()
	r.render(session.Snapshot())

	fmt.Println("---- Asistente de reclamos (escribe /ayuda para ver comandos) ----")
	for {
		fmt.Print("Tu > ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := session.SendMessage(ctx, line); err != nil {
				fmt.Printf("error enviando mensaje: %v\n", err)
			}
			continue
		}
		if quit := runCommand(ctx, session, transport, line); quit {
			break
		}
	}

	session.Wait()
	fmt.Println("Saliendo del chat...")
}

func runCommand(ctx context.Context, session *service.ChatSession, transport chatbot.Client, line string) bool {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/salir", "/quit":
		return true
	case "/ayuda", "/help":
		printHelp()
	case "/abrir", "/open":
		session.ToggleChat()
	case "/min":
		session.ToggleMinimize()
	case "/limpiar", "/clear":
		session.ClearChat(ctx)
		fmt.Println("Conversacion borrada.")
	case "/pagina", "/page":
		if len(args) == 0 {
			fmt.Println("uso: /pagina <ruta>")
			return false
		}
		session.SetPage(args[0])
	case "/valorar", "/rate":
		if len(args) != 2 {
			fmt.Println("uso: /valorar <n> up|down")
			return false
		}
		id, err := messageIDAt(session, args[0])
		if err != nil {
			fmt.Println(err)
			return false
		}
		if err := session.RateMessage(ctx, id, domain.Rating(strings.ToLower(args[1]))); err != nil {
			fmt.Printf("error valorando: %v\n", err)
		}
	case "/copiar", "/copy":
		if len(args) != 1 {
			fmt.Println("uso: /copiar <n>")
			return false
		}
		id, err := messageIDAt(session, args[0])
		if err != nil {
			fmt.Println(err)
			return false
		}
		if err := session.CopyMessage(ctx, id); err != nil {
			fmt.Printf("error copiando: %v\n", err)
		}
	case "/exportar", "/export":
		exportConversation(session, args)
	case "/faq":
		showFAQ(ctx, transport, strings.Join(args, " "))
	case "/voz", "/voice":
		if err := session.SendVoiceMessage(ctx); err != nil {
			fmt.Printf("error de dictado: %v\n", err)
		}
	default:
		fmt.Println("Comando desconocido. Escribe /ayuda.")
	}
	return false
}

func printHelp() {
	fmt.Println("Comandos:")
	fmt.Println("  /abrir            abre o cierra el widget")
	fmt.Println("  /min              minimiza o restaura")
	fmt.Println("  /limpiar          borra la conversacion")
	fmt.Println("  /pagina <ruta>    cambia la pagina actual")
	fmt.Println("  /valorar <n> up|down")
	fmt.Println("  /copiar <n>       copia el mensaje n")
	fmt.Println("  /exportar [ruta]  exporta la conversacion en JSON")
	fmt.Println("  /faq [consulta]   categorias o busqueda de preguntas frecuentes")
	fmt.Println("  /voz              dicta un mensaje")
	fmt.Println("  /salir")
}

// messageIDAt traduce el número que muestra el renderer al id del mensaje.
func messageIDAt(session *service.ChatSession, raw string) (string, error) {
	n, err := strconv.Atoi(raw)
	messages := session.Messages()
	if err != nil || n < 1 || n > len(messages) {
		return "", fmt.Errorf("mensaje %q invalido", raw)
	}
	return messages[n-1].ID, nil
}

func exportConversation(session *service.ChatSession, args []string) {
	data, err := session.ExportJSON()
	if err != nil {
		fmt.Printf("error exportando: %v\n", err)
		return
	}
	if len(args) == 0 {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		fmt.Printf("error exportando: %v\n", err)
		return
	}
	fmt.Printf("Conversacion exportada a %s\n", args[0])
}

func showFAQ(ctx context.Context, transport chatbot.Client, query string) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if strings.TrimSpace(query) == "" {
		categories, err := transport.FAQCategories(ctx)
		if err != nil {
			fmt.Printf("error listando categorias: %v\n", err)
			return
		}
		for _, c := range categories {
			fmt.Printf("- %s (%d)  /faq %s\n", c.Name, c.Count, c.ID)
		}
		return
	}

	faqs, err := transport.FAQsByCategory(ctx, query)
	var statusErr *chatbot.StatusError
	if err != nil && errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
		faqs, err = transport.SearchFAQ(ctx, query)
	}
	if err != nil {
		fmt.Printf("error consultando FAQ: %v\n", err)
		return
	}
	if len(faqs) == 0 {
		fmt.Println("Sin resultados.")
		return
	}
	for _, f := range faqs {
		fmt.Printf("P: %s\nR: %s\n\n", f.Question, f.Answer)
	}
}

// resolveIdentity arma la identidad desde un token existente o emite uno de desarrollo.
func resolveIdentity(cfg *config.Config, token, login string) (*domain.Identity, string, error) {
	if token == "" && login == "" {
		return nil, "", nil
	}
	if cfg.JWTSecret == "" {
		return nil, "", errors.New("JWT_SECRET no configurado")
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL())

	if token == "" {
		identity, err := parseLogin(login)
		if err != nil {
			return nil, "", err
		}
		token, err = jwtSvc.GenerateAccessToken(identity)
		if err != nil {
			return nil, "", err
		}
	}

	claims, err := jwtSvc.ParseAccessToken(token)
	if err != nil {
		return nil, "", err
	}
	identity := service.IdentityFromClaims(claims)
	return &identity, token, nil
}

func parseLogin(raw string) (domain.Identity, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return domain.Identity{}, fmt.Errorf("login %q invalido, usa uid:rol[:departamento[:nombre]]", raw)
	}
	identity := domain.Identity{
		UserID: strings.TrimSpace(parts[0]),
		Role:   domain.ParseRole(strings.ToLower(strings.TrimSpace(parts[1]))),
	}
	if len(parts) > 2 {
		identity.Department = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		identity.Name = strings.TrimSpace(parts[3])
	}
	return identity, nil
}
