/*
包 coding 实现驱动模型执行 shell 命令的对话循环。

# 流程

 1. 发送首个请求：developer 指令 + 用户请求，声明 local_shell 工具
 2. 响应中有 local_shell_call 时，取第一个交给 CommandExecutor 执行，
    记录 {command, output}，再以 previous_response_id 续写并回传
    local_shell_call_output（call_id 原样回传）
 3. 没有 shell 调用时，取第一条 assistant 消息的第一段文本，
    记录 final_response 并返回

# 错误

响应既没有 shell 调用也没有 assistant 文本时返回
types.ErrProtocolViolation。执行后端与日志 sink 的错误原样返回。
WithMaxTurns 超限时返回 types.ErrMaxTurnsExceeded。
*/
package coding
