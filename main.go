// AI-ChatBot 终端客户端入口
package main

import "ai-chatbot/cmd"

func main() {
	cmd.Execute()
}
